package models

import "encoding/json"

// Read models for the externally owned game database (QBCore + ps-mdt).
// These tables are never migrated from here; the CAD is a read-mostly
// consumer.

// CitizenRow mirrors the players table, where charinfo/job/gang/metadata
// are JSON stored as text.
type CitizenRow struct {
	Citizenid string `gorm:"column:citizenid" json:"citizenid"`
	Charinfo  string `gorm:"column:charinfo" json:"-"`
	Job       string `gorm:"column:job" json:"-"`
	Gang      string `gorm:"column:gang" json:"-"`
	Metadata  string `gorm:"column:metadata" json:"-"`
}

func (CitizenRow) TableName() string { return "players" }

// Citizen is the normalized API shape with the JSON columns decoded.
type Citizen struct {
	Citizenid string          `json:"citizenid"`
	Charinfo  json.RawMessage `json:"charinfo"`
	Job       json.RawMessage `json:"job"`
	Gang      json.RawMessage `json:"gang"`
	Metadata  json.RawMessage `json:"metadata"`
}

// Normalize decodes the text columns, falling back to empty objects for
// rows with malformed JSON.
func (r CitizenRow) Normalize() Citizen {
	return Citizen{
		Citizenid: r.Citizenid,
		Charinfo:  rawJSONOrEmpty(r.Charinfo),
		Job:       rawJSONOrEmpty(r.Job),
		Gang:      rawJSONOrEmpty(r.Gang),
		Metadata:  rawJSONOrEmpty(r.Metadata),
	}
}

func rawJSONOrEmpty(s string) json.RawMessage {
	if json.Valid([]byte(s)) && s != "" {
		return json.RawMessage(s)
	}
	return json.RawMessage("{}")
}

// VehicleRow mirrors player_vehicles.
type VehicleRow struct {
	ID        uint   `gorm:"column:id" json:"id"`
	Citizenid string `gorm:"column:citizenid" json:"citizenid"`
	Plate     string `gorm:"column:plate" json:"plate"`
	Vehicle   string `gorm:"column:vehicle" json:"vehicle"`
	State     int    `gorm:"column:state" json:"state"`
	Garage    string `gorm:"column:garage" json:"garage"`
	Mods      string `gorm:"column:mods" json:"mods"`
}

func (VehicleRow) TableName() string { return "player_vehicles" }

// VehicleFlags mirrors mdt_vehicleinfo (ps-mdt stolen/code5 markers).
type VehicleFlags struct {
	Plate       string `gorm:"column:plate" json:"plate"`
	Stolen      bool   `gorm:"column:stolen" json:"stolen"`
	Code5       bool   `gorm:"column:code5" json:"code5"`
	Points      int    `gorm:"column:points" json:"points"`
	Information string `gorm:"column:information" json:"information"`
	Image       string `gorm:"column:image" json:"image"`
}

func (VehicleFlags) TableName() string { return "mdt_vehicleinfo" }

// Vehicle is a vehicle row joined with its ps-mdt flags, if any.
type Vehicle struct {
	VehicleRow
	Flags *VehicleFlags `json:"flags"`
}

// PropertyRow is a player_houses row joined with houselocations.
type PropertyRow struct {
	House      string  `gorm:"column:house" json:"house"`
	Citizenid  string  `gorm:"column:citizenid" json:"citizenid"`
	Identifier string  `gorm:"column:identifier" json:"identifier"`
	Keyholders string  `gorm:"column:keyholders" json:"keyholders"`
	Label      *string `gorm:"column:label" json:"label"`
	Coords     *string `gorm:"column:coords" json:"coords"`
	Owned      *bool   `gorm:"column:owned" json:"owned"`
	Price      *int    `gorm:"column:price" json:"price"`
	Tier       *int    `gorm:"column:tier" json:"tier"`
	Garage     *string `gorm:"column:garage" json:"garage"`
}

// WarrantRow mirrors mdt_convictions rows flagged as warrants.
type WarrantRow struct {
	ID             uint   `gorm:"column:id" json:"id"`
	Cid            string `gorm:"column:cid" json:"cid"`
	Linkedincident string `gorm:"column:linkedincident" json:"linkedincident"`
	Warrant        string `gorm:"column:warrant" json:"warrant"`
	Guilty         string `gorm:"column:guilty" json:"guilty"`
	Processed      string `gorm:"column:processed" json:"processed"`
	Associated     string `gorm:"column:associated" json:"associated"`
	Charges        string `gorm:"column:charges" json:"charges"`
	Fine           int    `gorm:"column:fine" json:"fine"`
	Sentence       int    `gorm:"column:sentence" json:"sentence"`
	Time           string `gorm:"column:time" json:"time"`
}

func (WarrantRow) TableName() string { return "mdt_convictions" }

// ReportRow mirrors mdt_reports.
type ReportRow struct {
	ID               uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Author           string `gorm:"column:author" json:"author"`
	Title            string `gorm:"column:title" json:"title"`
	Type             string `gorm:"column:type" json:"type"`
	Details          string `gorm:"column:details" json:"details,omitempty"`
	Tags             string `gorm:"column:tags" json:"tags,omitempty"`
	Officersinvolved string `gorm:"column:officersinvolved" json:"officersinvolved,omitempty"`
	Civsinvolved     string `gorm:"column:civsinvolved" json:"civsinvolved,omitempty"`
	Gallery          string `gorm:"column:gallery" json:"gallery,omitempty"`
	Time             string `gorm:"column:time" json:"time"`
	Jobtype          string `gorm:"column:jobtype" json:"jobtype"`
}

func (ReportRow) TableName() string { return "mdt_reports" }

// BoloRow mirrors mdt_bolos.
type BoloRow struct {
	ID               uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Author           string `gorm:"column:author" json:"author"`
	Title            string `gorm:"column:title" json:"title"`
	Plate            string `gorm:"column:plate" json:"plate"`
	Owner            string `gorm:"column:owner" json:"owner"`
	Individual       string `gorm:"column:individual" json:"individual"`
	Detail           string `gorm:"column:detail" json:"detail,omitempty"`
	Tags             string `gorm:"column:tags" json:"tags,omitempty"`
	Gallery          string `gorm:"column:gallery" json:"gallery,omitempty"`
	Officersinvolved string `gorm:"column:officersinvolved" json:"officersinvolved,omitempty"`
	Time             string `gorm:"column:time" json:"time"`
	Jobtype          string `gorm:"column:jobtype" json:"jobtype"`
}

func (BoloRow) TableName() string { return "mdt_bolos" }
