package ranking

import "github.com/okian/dancefloor/internal/domain/model"

// SelectWinners takes the first three FINAL standings of each role. Places
// without a finalist stay nil.
func SelectWinners(rs RoleStandings) model.Winners {
	return model.Winners{
		Leader:   podium(rs.Leaders),
		Follower: podium(rs.Followers),
	}
}

func podium(ranked []Standing) model.Podium {
	place := func(i int) *model.Participant {
		if i >= len(ranked) {
			return nil
		}
		p := ranked[i].Participant
		return &p
	}
	return model.Podium{First: place(0), Second: place(1), Third: place(2)}
}
