package workout

import (
	"fmt"
)

// Intake is an inbound payload that can be rendered into the user message.
type Intake interface {
	fmt.Stringer
}

// Sex is the biological sex accepted by the profile intake.
type Sex string

const (
	Male   Sex = "Male"
	Female Sex = "Female"
)

// AthleteType is the coarse category of the history intake.
type AthleteType string

const (
	Runner  AthleteType = "Runner"
	Cyclist AthleteType = "Cyclist"
	Swimmer AthleteType = "Swimmer"
	Other   AthleteType = "Other"
)

// ExperienceLevelMap maps each tracked activity to a proficiency label
// such as "Beginner", "Intermediate" or "No Interest".
//
// The labels are pointers so that required only rejects an absent key;
// an empty label is passed to the model as-is.
type ExperienceLevelMap struct {
	WeightTraining *string `json:"weight_training" validate:"required"`
	Cycling        *string `json:"cycling" validate:"required"`
	Running        *string `json:"running" validate:"required"`
}

// ProfileIntake is the body of the profile variant.
// Weight is in kilograms and height in centimetres.
type ProfileIntake struct {
	Sex                Sex                 `json:"sex" validate:"required,oneof=Male Female"`
	Weight             *float64            `json:"weight" validate:"required"`
	Height             *float64            `json:"height" validate:"required"`
	ExperienceLevelMap *ExperienceLevelMap `json:"experienceLevelMap" validate:"required"`
}

// String renders the intake the way the few-shot prompt expects it.
func (p ProfileIntake) String() string {
	levels := "None"
	if p.ExperienceLevelMap != nil {
		levels = p.ExperienceLevelMap.String()
	}
	return fmt.Sprintf("sex=%s weight=%s height=%s experienceLevelMap=%s",
		quote(string(p.Sex)), floatPtr(p.Weight), floatPtr(p.Height), levels)
}

func (m ExperienceLevelMap) String() string {
	return fmt.Sprintf("ExperienceLevelMap(weight_training=%s, cycling=%s, running=%s)",
		strPtr(m.WeightTraining), strPtr(m.Cycling), strPtr(m.Running))
}

// TrainingData carries the numeric history of a runner, cyclist or swimmer.
type TrainingData struct {
	AvgSplit    *float64 `json:"avg_split" validate:"required"`
	AvgDistance *float64 `json:"avg_distance" validate:"required"`
}

func (d TrainingData) String() string {
	return fmt.Sprintf("TrainingData(avg_split=%s, avg_distance=%s)", floatPtr(d.AvgSplit), floatPtr(d.AvgDistance))
}

// HistoryIntake is the body of the history variant.
//
// Athletes of type Other are expected to leave Data empty and describe
// themselves in Description. Only the prompt states this; it is not validated.
type HistoryIntake struct {
	AthleteType AthleteType   `json:"athlete_type" validate:"required,oneof=Runner Cyclist Swimmer Other"`
	Data        *TrainingData `json:"data,omitempty" validate:"omitempty"`
	Description *string       `json:"description" validate:"required"`
}

// String renders the intake the way the few-shot prompt expects it.
func (h HistoryIntake) String() string {
	data := "None"
	if h.Data != nil {
		data = h.Data.String()
	}
	return fmt.Sprintf("athlete_type=%s data=%s description=%s", quote(string(h.AthleteType)), data, strPtr(h.Description))
}
