package patients

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("patient not found")

//go:generate mockgen --build_flags=--mod=mod -source=./patients.go -destination=./test/mock_service.go -package test MockService

type Service interface {
	Get(ctx context.Context, patientId string) (*Patient, error)
	Exists(ctx context.Context, patientId string) (bool, error)
}

type Repository interface {
	Service
}

type Patient struct {
	Id        *primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PatientId string              `bson:"patientId" json:"patientId"`
	FullName  *string             `bson:"fullName,omitempty" json:"fullName,omitempty"`
	BirthDate *string             `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Gender    *string             `bson:"gender,omitempty" json:"gender,omitempty"`
}
