package strava

// PolylineMap carries encoded route geometry. Summaries fill SummaryPolyline;
// segment detail fills Polyline.
type PolylineMap struct {
	ID              string `json:"id"`
	Polyline        string `json:"polyline"`
	SummaryPolyline string `json:"summary_polyline"`
}

// SummaryActivity is one entry of GET /athlete/activities.
// StartDate is kept as the raw ISO-8601 string ("2024-05-01T07:00:00Z").
type SummaryActivity struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Type               string      `json:"type"`
	SportType          string      `json:"sport_type"`
	Distance           float64     `json:"distance"`
	MovingTime         int         `json:"moving_time"`
	ElapsedTime        int         `json:"elapsed_time"`
	TotalElevationGain float64     `json:"total_elevation_gain"`
	StartDate          string      `json:"start_date"`
	AverageSpeed       float64     `json:"average_speed"`
	MaxSpeed           float64     `json:"max_speed"`
	AverageHeartrate   *float64    `json:"average_heartrate,omitempty"`
	Map                PolylineMap `json:"map"`
}

// DetailedActivity is GET /activities/{id}: the summary plus segment efforts.
type DetailedActivity struct {
	SummaryActivity
	SegmentEfforts []SegmentEffort `json:"segment_efforts"`
}

// SegmentEffort is one attempt on a segment within an activity.
type SegmentEffort struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	ElapsedTime int            `json:"elapsed_time"`
	MovingTime  int            `json:"moving_time"`
	StartDate   string         `json:"start_date"`
	PRRank      *int           `json:"pr_rank"`
	Segment     SummarySegment `json:"segment"`
}

// SummarySegment is the segment object nested inside an effort.
type SummarySegment struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	ActivityType string  `json:"activity_type"`
	Distance     float64 `json:"distance"`
	AverageGrade float64 `json:"average_grade"`
}

// Segment is GET /segments/{id}. Map.Polyline may be empty.
type Segment struct {
	SummarySegment
	TotalElevationGain float64     `json:"total_elevation_gain"`
	EffortCount        int         `json:"effort_count"`
	Map                PolylineMap `json:"map"`
}

// Athlete is the subset of GET /athlete used for credential checks.
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type apiErrorBody struct {
	Message string `json:"message"`
}
