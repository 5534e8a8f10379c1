package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayfinder/internal/app/commands"
	BookingApp "stayfinder/internal/app/handlers/booking"
	"stayfinder/internal/app/queries"
	domainbooking "stayfinder/internal/domain/booking"
	"stayfinder/internal/domain/shared/money"
)

const bookingDateLayout = "2006-01-02"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Currency string
}

type startBookingRequest struct {
	ListingID    string `json:"listing_id"`
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	Guests       int    `json:"guests"`
	MaxOccupancy int    `json:"max_occupancy"`
	NightlyRate  int64  `json:"nightly_rate"`
}

func (h BookingHandler) Start(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req startBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": domainbooking.CodeMalformedDate})
		return
	}
	rate, err := money.New(req.NightlyRate, h.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.StartBookingCommand{
		ListingID:       req.ListingID,
		GuestID:         user.ID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		MaxOccupancy:    req.MaxOccupancy,
		NightlyRate:     rate,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.StartBookingCommand, *BookingApp.StartBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeStartError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

// writeStartError distinguishes caller faults from wiring and storage faults:
// only request-shaped rejections are 400s.
func writeStartError(c *gin.Context, err error) {
	var verr *domainbooking.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "code": verr.Code})
	case errors.Is(err, domainbooking.ErrGuestRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h BookingHandler) Get(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	q := BookingApp.GetAttemptQuery{
		AttemptID:  c.Param("id"),
		CallerID:   user.ID,
		CallerRole: user.Role,
	}
	snapshot, err := queries.Ask[BookingApp.GetAttemptQuery, domainbooking.Snapshot](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Commands == nil || h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	// Ownership check reuses the query path so admins can cancel too.
	q := BookingApp.GetAttemptQuery{
		AttemptID:  c.Param("id"),
		CallerID:   user.ID,
		CallerRole: user.Role,
	}
	if _, err := queries.Ask[BookingApp.GetAttemptQuery, domainbooking.Snapshot](c.Request.Context(), h.Queries, q); err != nil {
		writeBookingError(c, err)
		return
	}
	cmd := BookingApp.CancelBookingCommand{AttemptID: c.Param("id")}
	result, err := commands.Dispatch[BookingApp.CancelBookingCommand, *BookingApp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type MeHandler struct {
	Queries queries.Bus
}

func (h MeHandler) ListBookings(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	q := BookingApp.ListGuestAttemptsQuery{GuestID: user.ID}
	snapshots, err := queries.Ask[BookingApp.ListGuestAttemptsQuery, []domainbooking.Snapshot](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": snapshots})
}

func parseStayDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse(bookingDateLayout, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("check_in must be a YYYY-MM-DD date")
	}
	out, err := time.Parse(bookingDateLayout, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("check_out must be a YYYY-MM-DD date")
	}
	return in, out, nil
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking attempt not found"})
	case errors.Is(err, domainbooking.ErrTooLateToCancel):
		c.JSON(http.StatusConflict, gin.H{"error": "reservation already created, too late to cancel"})
	case errors.Is(err, domainbooking.ErrAlreadyTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "booking attempt already finished"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

var _ BookingHTTP = BookingHandler{}
var _ MeHTTP = MeHandler{}
