package dashboard

import (
	"context"
	"time"
)

// Backend paths used by the flows.
const (
	EndpointPatients        = "/patients"
	EndpointMedicines       = "/pharmacists/medicines"
	EndpointGiveMedicine    = "/pharmacists/giveMedicine"
	EndpointAddConsultation = "/physicians/add-consultation"
)

// Gateway is the remote data boundary. FetchList decodes the whole list into
// out, following the server's pages until the last one. SubmitAction posts payload as JSON and returns an
// error carrying the server's message on rejection.
type Gateway interface {
	FetchList(ctx context.Context, resource string, out any) error
	SubmitAction(ctx context.Context, endpoint string, payload any) error
}

// Patient is a row of the patient list. The dashboard never mutates it.
type Patient struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
	Age      int    `json:"age"`
	Role     string `json:"role"`
}

// Medicine is a read-only inventory snapshot.
type Medicine struct {
	Name       string    `json:"medName"`
	Price      float64   `json:"medPrice"`
	Expiration time.Time `json:"medExpiration"`
}

// GiveMedicineRequest is the dispense payload.
type GiveMedicineRequest struct {
	PatientUsername string `json:"patientUsername"`
	Name            string `json:"name"`
}

// ConsultationRequest is the add-consultation payload.
type ConsultationRequest struct {
	Disease         string `json:"disease"`
	Description     string `json:"description"`
	PatientUsername string `json:"patientUsername"`
}
