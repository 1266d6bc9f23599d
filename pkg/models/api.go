package models

import (
	"bytes"
	"encoding/json"
)

// Errors is the error map carried by every response body.
// It is empty on success.
type Errors map[string]string

// FlexString accepts a JSON string or a bare JSON scalar (number, bool) and
// keeps its text form, so id fields can be validated the same way whether a
// client sends 5, "5", -1 or "abc".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

type StatusResponse struct {
	Errors Errors `json:"errors"`
}

type HealthResponse struct {
	IsAlive bool `json:"isAlive"`
}

// Auth API types
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type VineyardSummary struct {
	VineyardID   int64  `json:"vineyard_id"`
	VineyardName string `json:"vineyard_name"`
}

type LoginResponse struct {
	AuthToken           string            `json:"auth_token"`
	AuthorizedVineyards []VineyardSummary `json:"authorized_vineyards"`
	IsAdmin             bool              `json:"is_admin"`
	Errors              Errors            `json:"errors"`
}

type LogoutRequest struct {
	AuthToken string `json:"auth_token"`
}

type PasswordChangeRequest struct {
	AuthToken string `json:"auth_token"`
	Token     string `json:"token"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Old       string `json:"old"`
}

type PasswordResetRequest struct {
	Username string `json:"username"`
}

type EmailChangeRequest struct {
	AuthToken string `json:"auth_token"`
	NewEmail  string `json:"new_email"`
}

// Admin user API types
type AdminUserRequest struct {
	AuthToken       string `json:"auth_token"`
	AdminUsername   string `json:"admin_username"`
	RequestUsername string `json:"request_username"`
	SubEndDate      string `json:"sub_end_date"`
}

type NewUserInfo struct {
	Username   string       `json:"username"`
	Password   string       `json:"password"`
	Email      string       `json:"email"`
	Admin      bool         `json:"admin"`
	Enabled    *bool        `json:"enabled"`
	SubEndDate string       `json:"subenddate"`
	UserID     FlexString   `json:"userid"`
	Vineyards  []FlexString `json:"vineyards"`
}

type NewUserRequest struct {
	AuthToken     string      `json:"auth_token"`
	AdminUsername string      `json:"admin_username"`
	NewUserInfo   NewUserInfo `json:"new_user_info"`
}

// EditUserInfo carries the fields an admin may change. Nil means unchanged.
type EditUserInfo struct {
	Email      *string       `json:"email"`
	Admin      *bool         `json:"admin"`
	Enabled    *bool         `json:"enabled"`
	SubEndDate *string       `json:"subenddate"`
	Vineyards  *[]FlexString `json:"vineyards"`
}

type EditUserRequest struct {
	AuthToken       string       `json:"auth_token"`
	AdminUsername   string       `json:"admin_username"`
	RequestUsername string       `json:"request_username"`
	UserInfo        EditUserInfo `json:"user_info"`
}

type UserInfo struct {
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Admin      bool    `json:"admin"`
	Enabled    bool    `json:"enabled"`
	SubEndDate string  `json:"sub_end_date"`
	UserID     int64   `json:"user_id"`
	Vineyards  []int64 `json:"vineyards"`
}

type UserInfoResponse struct {
	UserInfo
	Errors Errors `json:"errors"`
}

type UserListResponse struct {
	Users  []UserInfo `json:"users"`
	Errors Errors     `json:"errors"`
}

// Vineyard API types
type VineyardRequest struct {
	AuthToken  string     `json:"auth_token"`
	VineyardID FlexString `json:"vineyard_id"`
}

type NewVineyardInfo struct {
	VineyardID FlexString `json:"vineyard_id"`
	Name       string     `json:"name"`
	Owners     []string   `json:"owners"`
	Center     Point      `json:"center"`
	Boundaries []Point    `json:"boundaries"`
	Enabled    *bool      `json:"enabled"`
}

type NewVineyardRequest struct {
	AuthToken       string          `json:"auth_token"`
	NewVineyardInfo NewVineyardInfo `json:"new_vineyard_info"`
}

type EditVineyardInfo struct {
	Name       *string   `json:"name"`
	Owners     *[]string `json:"owners"`
	Center     *Point    `json:"center"`
	Boundaries *[]Point  `json:"boundaries"`
	Enabled    *bool     `json:"enabled"`
}

type EditVineyardRequest struct {
	AuthToken    string           `json:"auth_token"`
	VineyardID   FlexString       `json:"vineyard_id"`
	VineyardInfo EditVineyardInfo `json:"vineyard_info"`
}

type NodeInfo struct {
	NodeID int64   `json:"node_id"`
	HubID  int64   `json:"hub_id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

type VineyardInfo struct {
	VineyardID int64      `json:"vineyard_id"`
	Name       string     `json:"name"`
	Owners     []string   `json:"owners"`
	Center     Point      `json:"center"`
	Boundaries []Point    `json:"boundaries"`
	Enabled    bool       `json:"enabled"`
	Users      []string   `json:"users,omitempty"`
	Nodes      []NodeInfo `json:"nodes"`
}

type VineyardInfoResponse struct {
	VineyardInfo
	Errors Errors `json:"errors"`
}

type VineyardListResponse struct {
	Vineyards []VineyardInfo `json:"vineyards"`
	Errors    Errors         `json:"errors"`
}

type NewNodeRequest struct {
	AuthToken  string     `json:"auth_token"`
	NodeID     FlexString `json:"node_id"`
	VineyardID FlexString `json:"vineyard_id"`
	HubID      FlexString `json:"hub_id"`
	Location   Point      `json:"location"`
}

// Environmental data API types
type EnvDataRequest struct {
	AuthToken   string     `json:"auth_token"`
	VineyardID  FlexString `json:"vineyard_id"`
	EnvVariable string     `json:"env_variable"`
}

// EnvDataPoint is keyed by the requested variable name, e.g.
// {"node_id": 3, "latitude": 45.1, "longitude": -122.3, "temperature": 21.5}.
type EnvDataPoint map[string]interface{}

type EnvDataResponse struct {
	EnvData []EnvDataPoint `json:"env_data"`
	Errors  Errors         `json:"errors"`
}

// HubSample fields are pointers so missing readings can be told apart from
// zero readings.
type HubSample struct {
	NodeID      *int64   `json:"node_id"`
	DataSent    *int64   `json:"data_sent"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	LeafWetness *float64 `json:"leafwetness"`
}

type HubDataRequest struct {
	Key       string      `json:"key"`
	HubID     *int64      `json:"hub_id"`
	VineID    *int64      `json:"vine_id"`
	BatchSent *int64      `json:"batch_sent"`
	HubData   []HubSample `json:"hub_data"`
}
