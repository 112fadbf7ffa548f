/*
Package workout holds the request and response shapes of the workout planner:
the two intake variants, the activity records produced by the model, and the
prompt and tool schema each variant sends to the model.
*/
package workout

// Day is a day of the week as the model is asked to spell it.
type Day string

const (
	Sunday    Day = "Sunday"
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
)

// Days lists the week in the order the tool schema enumerates it.
var Days = []Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WorkoutActivity is one exercise of the generated weekly plan.
// Sets and Reps are optional in the tool schema, the rest is required.
type WorkoutActivity struct {
	ActivityName string `json:"activityName" jsonschema_description:"Name of a specific exercise, e.g. Barbell Bench Press."`
	Description  string `json:"description" jsonschema_description:"One sentence on what the exercise targets."`
	Day          Day    `json:"day" jsonschema:"enum=Sunday,enum=Monday,enum=Tuesday,enum=Wednesday,enum=Thursday,enum=Friday,enum=Saturday"`
	Sets         int    `json:"sets,omitempty"`
	Reps         int    `json:"reps,omitempty"`
}

// WorkoutProgram is the argument object of the get_workout_program function call.
type WorkoutProgram struct {
	Activities []WorkoutActivity `json:"activities" jsonschema_description:"The weekly plan, one entry per exercise."`
}
