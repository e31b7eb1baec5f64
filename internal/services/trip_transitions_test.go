package services

import (
	"testing"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalizeTripStatus(t *testing.T) {
	assert.Equal(t, models.TripStatusCancelled, NormalizeTripStatus("canceled"))
	assert.Equal(t, models.TripStatusCancelled, NormalizeTripStatus("cancelled"))
	assert.Equal(t, models.TripStatusInProgress, NormalizeTripStatus("in-progress"))
	assert.Equal(t, models.TripStatusInProgress, NormalizeTripStatus("inprogress"))
	assert.Equal(t, models.TripStatusInProgress, NormalizeTripStatus("ongoing"))
	assert.Equal(t, models.TripStatus("teleported"), NormalizeTripStatus("teleported"))
}

func TestAuthorizeTransition(t *testing.T) {
	driverID := primitive.NewObjectID()
	otherDriverID := primitive.NewObjectID()
	passengerID := primitive.NewObjectID()
	otherPassengerID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()

	makeTrip := func(status models.TripStatus, bound bool) *models.Trip {
		trip := &models.Trip{PassengerID: passengerID, Status: status}
		if bound {
			trip.DriverID = &driverID
		}
		return trip
	}

	cases := []struct {
		name     string
		trip     *models.Trip
		actorID  primitive.ObjectID
		role     string
		target   models.TripStatus
		wantKind utils.ErrorKind
	}{
		{"driver accepts pending", makeTrip(models.TripStatusPending, false), driverID, utils.RoleDriver, models.TripStatusAccepted, ""},
		{"driver accepts ready", makeTrip(models.TripStatusReady, false), driverID, utils.RoleDriver, models.TripStatusAccepted, ""},
		{"driver accepts scheduled", makeTrip(models.TripStatusScheduled, false), driverID, utils.RoleDriver, models.TripStatusAccepted, ""},
		{"driver starts own accepted trip", makeTrip(models.TripStatusAccepted, true), driverID, utils.RoleDriver, models.TripStatusInProgress, ""},
		{"other driver cannot start it", makeTrip(models.TripStatusAccepted, true), otherDriverID, utils.RoleDriver, models.TripStatusInProgress, utils.KindForbidden},
		{"driver completes own trip", makeTrip(models.TripStatusInProgress, true), driverID, utils.RoleDriver, models.TripStatusCompleted, ""},
		{"other driver cannot complete it", makeTrip(models.TripStatusInProgress, true), otherDriverID, utils.RoleDriver, models.TripStatusCompleted, utils.KindForbidden},
		{"driver readies own scheduled trip", makeTrip(models.TripStatusScheduled, true), driverID, utils.RoleDriver, models.TripStatusReady, ""},
		{"driver cancels own accepted trip", makeTrip(models.TripStatusAccepted, true), driverID, utils.RoleDriver, models.TripStatusCancelled, ""},
		{"driver cannot cancel in-progress trip", makeTrip(models.TripStatusInProgress, true), driverID, utils.RoleDriver, models.TripStatusCancelled, utils.KindIllegalTransition},
		{"driver cannot complete pending trip", makeTrip(models.TripStatusPending, false), driverID, utils.RoleDriver, models.TripStatusCompleted, utils.KindIllegalTransition},
		{"driver cannot reopen completed trip", makeTrip(models.TripStatusCompleted, true), driverID, utils.RoleDriver, models.TripStatusInProgress, utils.KindIllegalTransition},
		{"driver cannot accept completed trip", makeTrip(models.TripStatusCompleted, true), driverID, utils.RoleDriver, models.TripStatusAccepted, utils.KindIllegalTransition},

		{"passenger cancels own pending trip", makeTrip(models.TripStatusPending, false), passengerID, utils.RolePassenger, models.TripStatusCancelled, ""},
		{"passenger cancels own accepted trip", makeTrip(models.TripStatusAccepted, true), passengerID, utils.RolePassenger, models.TripStatusCancelled, ""},
		{"passenger cancels own scheduled trip", makeTrip(models.TripStatusScheduled, false), passengerID, utils.RolePassenger, models.TripStatusCancelled, ""},
		{"passenger cancels own ready trip", makeTrip(models.TripStatusReady, false), passengerID, utils.RolePassenger, models.TripStatusCancelled, ""},
		{"other passenger cannot cancel", makeTrip(models.TripStatusPending, false), otherPassengerID, utils.RolePassenger, models.TripStatusCancelled, utils.KindForbidden},
		{"passenger cannot cancel in-progress trip", makeTrip(models.TripStatusInProgress, true), passengerID, utils.RolePassenger, models.TripStatusCancelled, utils.KindIllegalTransition},
		{"passenger cannot cancel twice", makeTrip(models.TripStatusCancelled, false), passengerID, utils.RolePassenger, models.TripStatusCancelled, utils.KindIllegalTransition},
		{"passenger cannot complete", makeTrip(models.TripStatusInProgress, true), passengerID, utils.RolePassenger, models.TripStatusCompleted, utils.KindIllegalTransition},

		{"admin forces any transition", makeTrip(models.TripStatusCompleted, true), adminID, utils.RoleAdmin, models.TripStatusPending, ""},
		{"vendor may not touch trips", makeTrip(models.TripStatusPending, false), adminID, utils.RoleVendor, models.TripStatusAccepted, utils.KindForbidden},
		{"unknown target status", makeTrip(models.TripStatusPending, false), driverID, utils.RoleDriver, "teleported", utils.KindInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := AuthorizeTransition(tc.trip, tc.actorID, tc.role, tc.target)
			if tc.wantKind == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantKind, utils.KindOf(err))
		})
	}
}
