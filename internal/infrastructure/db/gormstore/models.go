package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenmap/plant-service/internal/domain/entities"
)

type UserModel struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	Username  string         `gorm:"size:32;uniqueIndex;not null"`
	Email     *string        `gorm:"size:254;uniqueIndex"`
	Phone     string         `gorm:"size:32"`
	Nickname  string         `gorm:"size:64"`
	AvatarURL string         `gorm:"size:512"`
	Bio       string         `gorm:"size:500"`
	Password  string         `gorm:"not null"`
	Role      string         `gorm:"size:16;not null;default:user"`
}

func (UserModel) TableName() string {
	return "users"
}

type PlantModel struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerId     uuid.UUID  `gorm:"type:uuid;index;not null"`
	GardenId    *uuid.UUID `gorm:"type:uuid;index"`
	Name        string     `gorm:"size:100;not null"`
	Species     string     `gorm:"size:200"`
	Description string     `gorm:"size:2000"`
	Latitude    float64    `gorm:"index:idx_plants_lat_lng,priority:1;not null"`
	Longitude   float64    `gorm:"index:idx_plants_lat_lng,priority:2;not null"`
	Address     string     `gorm:"size:300"`
	ImageURL    string     `gorm:"size:512"`
	Tags        []string   `gorm:"serializer:json"`
	LikeCount   int64      `gorm:"not null;default:0"`
	CreatedAt   time.Time  `gorm:"index"`
	UpdatedAt   time.Time
}

func (PlantModel) TableName() string {
	return "plants"
}

type GardenModel struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerId     uuid.UUID `gorm:"type:uuid;index;not null"`
	Name        string    `gorm:"size:100;not null"`
	Description string    `gorm:"size:2000"`
	Latitude    float64   `gorm:"index:idx_gardens_lat_lng,priority:1;not null"`
	Longitude   float64   `gorm:"index:idx_gardens_lat_lng,priority:2;not null"`
	Address     string    `gorm:"size:300"`
	CoverURL    string    `gorm:"size:512"`
	IsPublic    bool      `gorm:"not null"`
	LikeCount   int64     `gorm:"not null;default:0"`
	PlantCount  int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (GardenModel) TableName() string {
	return "gardens"
}

type LikeModel struct {
	UserId     uuid.UUID `gorm:"type:uuid;primaryKey"`
	TargetType string    `gorm:"size:16;primaryKey"`
	TargetId   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time
}

func (LikeModel) TableName() string {
	return "likes"
}

type WikiEntryModel struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"size:100;index;not null"`
	ScientificName string    `gorm:"size:200;uniqueIndex;not null"`
	Family         string    `gorm:"size:100"`
	Description    string
	ImageURL       string   `gorm:"size:512"`
	CareLevel      string   `gorm:"size:16;index"`
	Light          []string `gorm:"serializer:json"`
	PlantType      string   `gorm:"size:32;index"`
	Location       string   `gorm:"size:16"`
	Size           string   `gorm:"size:16"`
	Watering       string
	Temperature    string
	Humidity       string
	Toxicity       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (WikiEntryModel) TableName() string {
	return "wiki_entries"
}

type SurveyModel struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"size:2000"`
	Status      string    `gorm:"size:16;index;not null"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (SurveyModel) TableName() string {
	return "surveys"
}

type SurveyQuestionModel struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey"`
	SurveyId uuid.UUID `gorm:"type:uuid;index;not null"`
	OrderNum int       `gorm:"not null"`
	Kind     string    `gorm:"size:16;not null"`
	Title    string    `gorm:"size:500;not null"`
	Options  []string  `gorm:"serializer:json"`
	Required bool
}

func (SurveyQuestionModel) TableName() string {
	return "survey_questions"
}

type SurveyResponseModel struct {
	Id        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	SurveyId  uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_survey_responses_survey_user,priority:1;not null"`
	UserId    uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_survey_responses_survey_user,priority:2;not null"`
	Answers   []entities.Answer `gorm:"serializer:json"`
	CreatedAt time.Time
}

func (SurveyResponseModel) TableName() string {
	return "survey_responses"
}

type IdempotencyRecord struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key        string    `gorm:"size:200;uniqueIndex"`
	Request    string
	Response   string
	StatusCode int
	CreatedAt  time.Time
}

func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}

// AllModels lists every table in migration order.
func AllModels() []any {
	return []any{
		&UserModel{},
		&GardenModel{},
		&PlantModel{},
		&LikeModel{},
		&WikiEntryModel{},
		&SurveyModel{},
		&SurveyQuestionModel{},
		&SurveyResponseModel{},
		&IdempotencyRecord{},
	}
}
