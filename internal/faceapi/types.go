package faceapi

// Wire types for the recognition server API.

type recognizeRequest struct {
	ImageBase64   string `json:"image_base64"`
	DeviceID      string `json:"device_id"`
	CapturedImage string `json:"captured_image,omitempty"`
}

type recognizeResponse struct {
	Matched   bool    `json:"matched"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
}

type registerRequest struct {
	ImageBase64 string `json:"image_base64"`
	Name        string `json:"name"`
	Position    string `json:"position"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
}

type historyRequest struct {
	Limit int `json:"limit"`
}

type historyResponse struct {
	Items []HistoryRecord `json:"items"`
	Count int             `json:"count"`
}

type usersResponse struct {
	Users []UserRecord `json:"users"`
}

type userImageResponse struct {
	ImageBase64 string `json:"image_base64"`
}

type workHoursResponse struct {
	Users []WorkHoursRecord `json:"users"`
}

type syncRequest struct {
	EventID     string  `json:"event_id"`
	DeviceID    string  `json:"device_id"`
	UserID      string  `json:"user_id,omitempty"`
	Name        string  `json:"name"`
	Matched     bool    `json:"matched"`
	TS          int64   `json:"ts"`
	ImageBase64 string  `json:"image_base64,omitempty"`
	Distance    float64 `json:"distance,omitempty"`
}

type syncResponse struct {
	Accepted  bool `json:"accepted"`
	Duplicate bool `json:"duplicate"`
}

// RecognitionResult is the outcome of a recognition call that reached the
// server and produced a well-formed response. "No match" is a normal result,
// never an error.
type RecognitionResult struct {
	Matched   bool
	UserID    string
	UserName  string
	Distance  float64
	Threshold float64
}

// RegistrationResult carries the server-assigned id of a newly enrolled user.
type RegistrationResult struct {
	UserID string
}

// UserRecord is one entry of the server's user roster.
type UserRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  string `json:"position"`
	Active    bool   `json:"active"`
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
}

// HistoryRecord is one entry of the server-authoritative attendance log.
// The local offline cache exists precisely to survive periods where this
// log cannot be fetched.
type HistoryRecord struct {
	ID       int64    `json:"id"`
	TS       int64    `json:"ts"`
	DeviceID string   `json:"device_id"`
	Matched  bool     `json:"matched"`
	UserID   string   `json:"user_id"`
	Name     string   `json:"name"`
	Distance *float64 `json:"distance"`
}

// WorkHoursRecord is one user's aggregated work time for a day (or one day
// within a summary range).
type WorkHoursRecord struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Date         string  `json:"date,omitempty"`
	FirstCheckIn int64   `json:"first_check_in"`
	LastCheckOut int64   `json:"last_check_out"`
	WorkHours    float64 `json:"work_hours"`
	CheckIns     int     `json:"check_ins"`
	CrossDay     bool    `json:"cross_day"`
}
