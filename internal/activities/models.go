package activities

import "time"

// Activity is a synchronized copy of one remote activity. ID is the remote
// activity id and is never generated locally.
type Activity struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name               string    `json:"name"`
	Type               string    `gorm:"index" json:"type"`
	Distance           float64   `json:"distance"` // meters
	MovingTime         int       `json:"moving_time"`
	ElapsedTime        int       `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	StartDate          time.Time `gorm:"not null;index" json:"start_date"`
	AverageSpeed       float64   `json:"average_speed"`
	MaxSpeed           float64   `json:"max_speed"`
	AverageHeartrate   *float64  `json:"average_heartrate,omitempty"`
	Polyline           *string   `json:"polyline,omitempty"`
}

func (Activity) TableName() string {
	return "activities"
}

// SegmentEffort is one attempt on a segment. Segment fields are copied from
// the remote segment object; there is no segments table.
type SegmentEffort struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	EffortID        int64     `gorm:"not null;uniqueIndex" json:"effort_id"`
	ActivityID      int64     `gorm:"not null;index" json:"activity_id"`
	SegmentID       int64     `gorm:"not null;index" json:"segment_id"`
	SegmentName     string    `json:"segment_name"`
	Distance        float64   `json:"distance"` // meters
	AverageGrade    float64   `json:"average_grade"`
	ElapsedTime     int       `json:"elapsed_time"`
	StartDate       time.Time `gorm:"not null" json:"start_date"`
	PRRank          *int      `json:"pr_rank,omitempty"`
	IsPR            bool      `gorm:"not null;index" json:"is_pr"`
	SegmentPolyline *string   `json:"segment_polyline,omitempty"`

	Activity *Activity `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SegmentEffort) TableName() string {
	return "segment_efforts"
}

// isPersonalRecord reports whether a remote pr_rank marks the athlete's best effort.
func isPersonalRecord(rank *int) bool {
	return rank != nil && *rank == 1
}
