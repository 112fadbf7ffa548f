package workout

import (
	"github.com/invopop/jsonschema"
)

/* =================================================================================
							TOOL SCHEMA DEFINITION
	The single function the model is forced to call. Its parameters are reflected
	from WorkoutProgram once, at package initialisation, and never mutated.
=================================================================================*/

// ProgramToolName is the only function the model may call.
const ProgramToolName = "get_workout_program"

// ProgramToolDescription is sent alongside the schema.
const ProgramToolDescription = "Generate a workout program based on user data"

// GenerateSchema reflects T into an inline JSON Schema that rejects unknown properties.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	schema.ID = ""
	return schema
}

// ProgramSchema describes the get_workout_program arguments.
var ProgramSchema = GenerateSchema[WorkoutProgram]()

/* =================================================================================
						PROMPT ENGINEERING & FEW-SHOT EXAMPLES
	The profile prompt is kept word for word as it was tuned, JSON example
	inputs included; the user message itself is the String() rendering.
=================================================================================*/

/*
ProfileSystemPrompt drives the profile variant. Its text, whitespace included,
is the tuned prompt and must not be reformatted.
*/
const ProfileSystemPrompt = `
Create a system to analyze user exercise history, and generate a customized weekly exercise plan that aims to improve the user's specific activity. 

**Tailor the plan to the sport that the user plays.** Additionally, adapt the plan according to any new input from the user.

# Steps

1. **Identify Goals**: Understand the user's goal for improvement in the specific activity (e.g., increase endurance, enhance strength, improve flexibility).
2. **Create a Weekly Plan**: 
- Formulate a personalized weekly exercise plan that aligns with the user's goals, ensuring it's balanced and progressive. 
- Always use the get_workout_program function to generate the user's workout plan. 
- Always name specific exercises the user must perform (e.g. "bicep curls" instead of "upper body strength")

** Example input: **

*Height will always be given in centimeters, and weight is always given in kilograms.*

{
    "sex": "Male",
    "weight": 77.564232,
    "height": 182.88,
    "experienceLevelMap": {
        "weight_training": "Intermediate",
        "Cycling": "No Interest",
        "Running": "Beginner"
    }
}

** Correct output: **

` + "```" + `JSON
{
  "activities": [
    {
      "activityName": "Barbell Bench Press",
      "description": "A compound exercise to target the chest, shoulders, and triceps.",
      "day": "Monday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Dumbbell Rows",
      "description": "An exercise to strengthen the back and improve posture.",
      "day": "Monday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Bodyweight Squats",
      "description": "A lower-body exercise for strengthening the legs and glutes.",
      "day": "Wednesday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Dumbbell Shoulder Press",
      "description": "An overhead pressing exercise to develop shoulder strength.",
      "day": "Wednesday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Incline Dumbbell Bench Press",
      "description": "Targets the upper chest and shoulders.",
      "day": "Friday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Lat Pulldowns",
      "description": "Strengthens the back and helps with pull-up progressions.",
      "day": "Friday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Light Jogging",
      "description": "A beginner-friendly cardio activity to improve running endurance.",
      "day": "Saturday",
      "sets": 1,
      "reps": 20
    },
    {
      "activityName": "Push-Ups",
      "description": "A bodyweight exercise to strengthen the chest, triceps, and core.",
      "day": "Sunday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Plank",
      "description": "A core stabilization exercise for improved overall strength.",
      "day": "Sunday",
      "sets": 4,
      "reps": 30
    }
  ]
}

` + "```" + `

**Example input: ** 

*Height will always be given in centimeters, and weight is always given in kilograms.*

{
    "sex": "Female",
    "weight": 63.50288,
    "height": 172.72,
    "experienceLevelMap": {
        "weight_training": "Beginner",
        "cycling": "No Interest",
        "running": "Intermediate"
    }
}

** Correct output: **

` + "```" + `JSON
{
  "activities": [
    {
      "activityName": "Dumbbell Goblet Squats",
      "description": "A beginner-friendly lower-body exercise to build leg strength and core stability.",
      "day": "Monday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Dumbbell Bench Press",
      "description": "A simple pressing exercise to strengthen the chest and triceps.",
      "day": "Monday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Walking Lunges",
      "description": "A functional exercise to improve lower-body strength and balance.",
      "day": "Wednesday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Dumbbell Shoulder Press",
      "description": "An overhead pressing movement to develop shoulder strength.",
      "day": "Wednesday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Romanian Deadlifts",
      "description": "A hinge movement to strengthen hamstrings and glutes.",
      "day": "Friday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Bent-Over Dumbbell Rows",
      "description": "Targets the back muscles for improved posture and strength.",
      "day": "Friday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Interval Running",
      "description": "A high-intensity running session alternating between sprints of 200 meters and recovery jogs of 400 meters.",
      "day": "Saturday",
      "sets": 6,
      "reps": 1
    },
    {
      "activityName": "Steady-State Run",
      "description": "A continuous, moderate-paced run for 5 kilometers to build aerobic endurance.",
      "day": "Sunday",
      "sets": 1,
      "reps": 1
    },
    {
      "activityName": "Bodyweight Push-Ups",
      "description": "A simple bodyweight exercise for upper-body strength.",
      "day": "Sunday",
      "sets": 4,
      "reps": 12
    },
    {
      "activityName": "Side Plank",
      "description": "A core exercise to strengthen the obliques and improve stability.",
      "day": "Sunday",
      "sets": 4,
      "reps": 30
    }
  ]
}
` + "```" + `

3. **Incorporate User Input**: Adjust the weekly plan based on any new input or changes in user preferences, needs, or constraints.
`

/*
HistorySystemPrompt drives the history variant. Runners, cyclists and swimmers
send numeric history in data; athletes of type Other send none and explain
themselves in description.
*/
const HistorySystemPrompt = `
Create a system to analyze user exercise history, and generate a customized weekly exercise plan that aims to improve the user's specific activity.

**Tailor the plan to the sport that the user plays.** Additionally, adapt the plan according to any new input from the user.

# Input

- athlete_type is one of Runner, Cyclist, Swimmer or Other.
- data holds the athlete's recent averages: avg_split is minutes per kilometer for runners, minutes per 10 kilometers for cyclists and minutes per 100 meters for swimmers; avg_distance is kilometers per session.
- When athlete_type is Other, data is None and description carries the full context: the sport, the training history and the goal.
- description is free text from the athlete. Treat it as the primary statement of their goal.

# Steps

1. **Identify Goals**: Understand the user's goal for improvement in the specific activity (e.g., increase endurance, enhance strength, improve speed).
2. **Create a Weekly Plan**:
- Formulate a personalized weekly exercise plan that aligns with the user's goals, ensuring it's balanced and progressive.
- Use the averages in data to set realistic volumes and paces.
- Always use the get_workout_program function to generate the user's workout plan.
- Always name specific exercises the user must perform (e.g. "400m repeats" instead of "speed work")

** Example input: **

athlete_type='Runner' data=TrainingData(avg_split=5.5, avg_distance=8.0) description='I want to run a half marathon under 1:55 in three months.'

** Correct output: **

` + "```JSON" + `
{
  "activities": [
    {"activityName": "Easy Run", "description": "An 8 kilometer run at conversational pace to build the aerobic base.", "day": "Monday", "sets": 1, "reps": 1},
    {"activityName": "400m Repeats", "description": "Fast 400 meter intervals at 5K pace with 200 meter recovery jogs.", "day": "Tuesday", "sets": 8, "reps": 1},
    {"activityName": "Walking Lunges", "description": "Builds single-leg strength and stability for running economy.", "day": "Wednesday", "sets": 3, "reps": 12},
    {"activityName": "Tempo Run", "description": "A 6 kilometer run at goal half-marathon pace of 5:25 per kilometer.", "day": "Thursday", "sets": 1, "reps": 1},
    {"activityName": "Plank", "description": "A core stabilization exercise that supports posture late in races.", "day": "Friday", "sets": 3, "reps": 45},
    {"activityName": "Long Run", "description": "A 16 kilometer run at easy pace to extend endurance.", "day": "Saturday", "sets": 1, "reps": 1}
  ]
}
` + "```" + `

** Example input: **

athlete_type='Other' data=None description='I play recreational tennis twice a week and want more power on my serve without hurting my shoulder.'

** Correct output: **

` + "```JSON" + `
{
  "activities": [
    {"activityName": "Medicine Ball Rotational Throws", "description": "Develops rotational power that transfers to the serve.", "day": "Monday", "sets": 4, "reps": 8},
    {"activityName": "Band External Rotations", "description": "Strengthens the rotator cuff to protect the shoulder.", "day": "Monday", "sets": 3, "reps": 15},
    {"activityName": "Trap Bar Deadlifts", "description": "Builds lower-body force production for the leg drive of the serve.", "day": "Wednesday", "sets": 4, "reps": 6},
    {"activityName": "Face Pulls", "description": "Balances pressing volume and supports scapular health.", "day": "Wednesday", "sets": 3, "reps": 12},
    {"activityName": "Lateral Bounds", "description": "Plyometric drill for explosive court movement.", "day": "Friday", "sets": 3, "reps": 10},
    {"activityName": "Pallof Press", "description": "Anti-rotation core work that stabilizes the trunk.", "day": "Friday", "sets": 3, "reps": 12}
  ]
}
` + "```" + `

3. **Incorporate User Input**: Adjust the weekly plan based on any new input or changes in user preferences, needs, or constraints.
`
