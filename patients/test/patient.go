package test

import (
	"time"

	"github.com/careloop-org/labresults/patients"
	"github.com/careloop-org/labresults/pointer"
	"github.com/careloop-org/labresults/test"
)

func RandomPatient() patients.Patient {
	return patients.Patient{
		PatientId: test.Faker.UUID().V4(),
		FullName:  pointer.FromAny(test.Faker.Person().Name()),
		BirthDate: pointer.FromAny(test.Faker.Time().Time(time.Now()).Format("2006-01-02")),
		Gender:    pointer.FromAny(test.Faker.Person().Gender()),
	}
}
