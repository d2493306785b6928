package patients_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/careloop-org/labresults/patients"
	patientsTest "github.com/careloop-org/labresults/patients/test"
)

var _ = Describe("Patients service", func() {
	var ctrl *gomock.Controller
	var repo *patientsTest.MockRepository
	var service patients.Service

	BeforeEach(func() {
		var err error
		ctrl = gomock.NewController(GinkgoT())
		repo = patientsTest.NewMockRepository(ctrl)
		service, err = patients.NewService(repo)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("delegates lookups to the repository", func() {
		patient := patientsTest.RandomPatient()
		repo.EXPECT().
			Get(gomock.Any(), patient.PatientId).
			Return(&patient, nil)

		found, err := service.Get(context.Background(), patient.PatientId)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(Equal(&patient))
	})

	It("caches positive existence checks", func() {
		repo.EXPECT().
			Exists(gomock.Any(), "patient-1").
			Return(true, nil).
			Times(1)

		for i := 0; i < 3; i++ {
			exists, err := service.Exists(context.Background(), "patient-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(exists).To(BeTrue())
		}
	})

	It("does not cache negative existence checks", func() {
		repo.EXPECT().
			Exists(gomock.Any(), "patient-1").
			Return(false, nil).
			Times(2)

		for i := 0; i < 2; i++ {
			exists, err := service.Exists(context.Background(), "patient-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(exists).To(BeFalse())
		}
	})

	It("propagates repository errors", func() {
		repo.EXPECT().
			Exists(gomock.Any(), "patient-1").
			Return(false, fmt.Errorf("connection reset"))

		_, err := service.Exists(context.Background(), "patient-1")
		Expect(err).To(MatchError(ContainSubstring("connection reset")))
	})
})
