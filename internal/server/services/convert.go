package services

import (
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

func toUserInfo(u *models.User) models.UserInfo {
	vineyards := []int64(u.VineyardIDs)
	if vineyards == nil {
		vineyards = []int64{}
	}
	return models.UserInfo{
		Username:   u.Username,
		Email:      u.Email,
		Admin:      u.IsAdmin,
		Enabled:    u.IsEnabled,
		SubEndDate: u.SubscriptionEndDate.Format(models.DateLayout),
		UserID:     u.UserID,
		Vineyards:  vineyards,
	}
}

func toNodeInfo(nodes []models.HardwareNode) []models.NodeInfo {
	infos := make([]models.NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		infos = append(infos, models.NodeInfo{
			NodeID: n.NodeID,
			HubID:  n.HubID,
			Lat:    n.Location.Lat,
			Lon:    n.Location.Lon,
		})
	}
	return infos
}

func toVineyardInfo(v *models.Vineyard, nodes []models.HardwareNode) models.VineyardInfo {
	owners := []string(v.OwnerList)
	if owners == nil {
		owners = []string{}
	}
	boundaries := []models.Point(v.Boundaries)
	if boundaries == nil {
		boundaries = []models.Point{}
	}
	return models.VineyardInfo{
		VineyardID: v.VineyardID,
		Name:       v.Name,
		Owners:     owners,
		Center:     v.Center,
		Boundaries: boundaries,
		Enabled:    v.IsEnabled,
		Nodes:      toNodeInfo(nodes),
	}
}
