package planner

import (
	"fmt"

	"WorkoutPlanner/internal/llm"
	"WorkoutPlanner/internal/workout"
)

// Variant names accepted by WORKOUT_VARIANT and used as metric labels.
const (
	VariantProfile = "profile"
	VariantHistory = "history"
)

// Variant is the per-variant parameter set of a Pipeline.
type Variant struct {
	Name         string
	SystemPrompt string
	Tool         llm.Tool
}

// ProgramTool is the get_workout_program function shared by both variants.
func ProgramTool() llm.Tool {
	return llm.Tool{
		Name:        workout.ProgramToolName,
		Description: workout.ProgramToolDescription,
		Parameters:  workout.ProgramSchema,
	}
}

// ProfileVariant plans from body measurements and experience levels.
func ProfileVariant() Variant {
	return Variant{Name: VariantProfile, SystemPrompt: workout.ProfileSystemPrompt, Tool: ProgramTool()}
}

// HistoryVariant plans from an athlete's type, training data and free text.
func HistoryVariant() Variant {
	return Variant{Name: VariantHistory, SystemPrompt: workout.HistorySystemPrompt, Tool: ProgramTool()}
}

// ValidateVariantName reports whether name is a known variant.
func ValidateVariantName(name string) error {
	switch name {
	case VariantProfile, VariantHistory:
		return nil
	default:
		return fmt.Errorf("unknown workout variant %q (want %q or %q)", name, VariantProfile, VariantHistory)
	}
}
