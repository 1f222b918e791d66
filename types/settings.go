package types

// SettingList names one of the name-keyed configuration lists.
type SettingList string

const (
	SettingRoles    SettingList = "roles"
	SettingLines    SettingList = "lines"
	SettingModels   SettingList = "models"
	SettingStations SettingList = "stations"
)

// SettingLists enumerates every configuration list.
var SettingLists = []SettingList{SettingRoles, SettingLines, SettingModels, SettingStations}

// NamedSetting is an entry of a configuration list. ID is positional and
// only meaningful for display; Name is the key.
type NamedSetting struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Permission grants or denies a role access to a module.
type Permission struct {
	Role    string `json:"role"`
	Module  string `json:"module"`
	Allowed bool   `json:"allowed"`
}
