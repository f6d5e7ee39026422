// Package contracts holds the response shapes the ClassPulse backend sends.
//
// The backend serializes Sequelize models, so fields arrive PascalCased
// ("Id", "Emotion", "Timestamp") with numeric ids. Older deployments and
// hand-written fixtures use camelCase or snake_case. Both variants are kept
// here so clients and test servers agree on one source.
package contracts

// ActivityContract is GET /activities/{id} for a finished session.
const ActivityContract = `{
  "Id": 42,
  "Title": "Linear Algebra - Eigenvalues",
  "AccessCode": "XK9P",
  "StartTime": "2025-03-10T09:00:00.000Z",
  "EndTime": "2025-03-10T10:30:00.000Z",
  "TeacherId": 3,
  "createdAt": "2025-03-09T18:12:44.000Z",
  "updatedAt": "2025-03-09T18:12:44.000Z"
}`

// ActivitySnakeCaseContract is an activity in the snake_case variant, still running.
const ActivitySnakeCaseContract = `{
  "id": "42",
  "title": "Linear Algebra - Eigenvalues",
  "access_code": "XK9P",
  "start_time": "2025-03-10 09:00:00"
}`

// FeedbackListContract is GET /feedbacks/activity/{id}.
const FeedbackListContract = `[
  {"Id": 7, "Emotion": "Happy", "Timestamp": "2025-03-10T09:05:12.000Z", "ActivityId": 42},
  {"Id": 8, "Emotion": "confused", "Timestamp": "2025-03-10T09:06:40.000Z", "ActivityId": 42},
  {"id": 9, "emotion": "surprised", "createdAt": "2025-03-10T09:07:03.000Z"},
  {"Id": 10, "Emotion": "bored", "Timestamp": "2025-03-10T09:08:00.000Z", "ActivityId": 42},
  {"Emotion": "sad", "created_at": "2025-03-10 09:09:30"}
]`

// FeedbackListValidReactions is how many entries of FeedbackListContract carry a known emotion.
const FeedbackListValidReactions = 4

// FeedbackErrorContract is what the backend answers with status 200 when the
// activity has no feedback table yet.
const FeedbackErrorContract = `{"message": "No feedback found"}`

// LoginContract is POST /teachers/login.
const LoginContract = `{"token": "eyJhbGciOiJIUzI1NiJ9.eyJpZCI6M30.sig"}`

// TeacherContract is GET /teachers/me and POST /teachers.
const TeacherContract = `{
  "Id": 3,
  "Name": "Ada Lovelace",
  "Email": "ada@school.edu",
  "createdAt": "2025-03-01T08:00:00.000Z",
  "updatedAt": "2025-03-01T08:00:00.000Z"
}`

// Routes maps backend paths, relative to the API base URL, to their contract.
var Routes = map[string]string{
	"/activities/42":         ActivityContract,
	"/feedbacks/activity/42": FeedbackListContract,
	"/teachers/login":        LoginContract,
	"/teachers/me":           TeacherContract,
	"/teachers":              TeacherContract,
}
