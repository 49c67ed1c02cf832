package services

import (
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prismlearn/mentor_platform/models"
	"github.com/prismlearn/mentor_platform/notifications"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var userColumns = []string{"id", "first_name", "last_name", "email", "password", "role", "expertise", "availability", "rating", "total_reviews"}

func userRow(id uuid.UUID, role string) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow(id, "Jane", "Doe", "jane@example.com", "x", role, []byte(`[]`), []byte(`{}`), 0.0, 0)
}

var bookingColumns = []string{"id", "student_id", "mentor_id", "date", "time", "duration", "status", "topic", "notes", "meeting_url", "created_at", "updated_at"}

func bookingRow(id, studentID, mentorID uuid.UUID, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingColumns).
		AddRow(id, studentID, mentorID, "2999-05-04", "10:00", 60, status, "Go interviews", "", nil, now, now)
}

func newBookingService(db *gorm.DB) *BookingService {
	notifier := NewNotificationService(db, nil)
	reminders := NewReminderService(db, notifier)
	return NewBookingService(db, notifier, NewRatingService(), reminders, notifications.NoopMailer{})
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to string
		actor    string
		allowed  bool
	}{
		{models.BookingPending, models.BookingAccepted, "mentor", true},
		{models.BookingPending, models.BookingDeclined, "mentor", true},
		{models.BookingAccepted, models.BookingCompleted, "mentor", true},
		{models.BookingAccepted, models.BookingCancelled, "student", true},
		{models.BookingPending, models.BookingCompleted, "", false},
		{models.BookingPending, models.BookingCancelled, "", false},
		{models.BookingAccepted, models.BookingDeclined, "", false},
		{models.BookingDeclined, models.BookingAccepted, "", false},
		{models.BookingCompleted, models.BookingCancelled, "", false},
		{models.BookingCancelled, models.BookingPending, "", false},
	}

	for _, tc := range cases {
		actor, ok := transitions[tc.from][tc.to]
		require.Equal(t, tc.allowed, ok, "%s -> %s", tc.from, tc.to)
		if tc.allowed {
			require.Equal(t, tc.actor, actor, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, terminal := range []string{models.BookingDeclined, models.BookingCompleted, models.BookingCancelled} {
		require.True(t, models.IsTerminalStatus(terminal))
		require.Empty(t, transitions[terminal])
	}
}

func TestCreateBookingRejectsBadSchedule(t *testing.T) {
	db, _ := newTestDB(t)
	svc := newBookingService(db)

	_, err := svc.CreateBooking(CreateBookingInput{Date: "04-05-2999", Time: "10:00"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateBooking(CreateBookingInput{Date: "2999-05-04", Time: "10am"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateBookingSlotConflict(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	mentorID, studentID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(userRow(mentorID, "mentor"))
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(userRow(studentID, "student"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.CreateBooking(CreateBookingInput{
		StudentID: studentID,
		MentorID:  mentorID,
		Date:      "2999-05-04",
		Time:      "10:00",
	})
	require.ErrorIs(t, err, ErrSlotConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSuccess(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	mentorID, studentID := uuid.New(), uuid.New()
	bookingID, notificationID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(userRow(mentorID, "mentor"))
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(userRow(studentID, "student"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(bookingID))
	mock.ExpectCommit()
	// Durable notification write to the mentor, outside the booking transaction.
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(notificationID))

	booking, err := svc.CreateBooking(CreateBookingInput{
		StudentID: studentID,
		MentorID:  mentorID,
		Date:      "2999-05-04",
		Time:      "10:00",
		Topic:     "Go interviews",
	})
	require.NoError(t, err)
	require.Equal(t, models.BookingPending, booking.Status)
	require.Equal(t, 60, booking.Duration)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Exactly one of N concurrent requests for the same slot may win; the rest
// must fail with a slot conflict.
func TestCreateBookingConcurrentSameSlot(t *testing.T) {
	db, mock := newUnorderedTestDB(t)
	svc := newBookingService(db)

	mentorID, studentID := uuid.New(), uuid.New()
	const workers = 8

	for i := 0; i < workers; i++ {
		mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(userRow(mentorID, "mentor"))
		mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(userRow(studentID, "student"))
		mock.ExpectBegin()
	}
	// The first transaction through the slot lock sees a free slot; every
	// later one sees it taken.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	for i := 0; i < workers-1; i++ {
		mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, conflicts := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(CreateBookingInput{
				StudentID: studentID,
				MentorID:  mentorID,
				Date:      "2999-05-04",
				Time:      "10:00",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			default:
				require.ErrorIs(t, err, ErrSlotConflict)
				conflicts++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, workers-1, conflicts)
}

func TestUpdateStatusAcceptGeneratesMeetingURL(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	bookingID, studentID, mentorID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings" (.+)FOR UPDATE`).
		WillReturnRows(bookingRow(bookingID, studentID, mentorID, models.BookingPending))
	mock.ExpectExec(`UPDATE "bookings"`).WillReturnResult(sqlmock.NewResult(0, 1))
	// Reminder task scheduled one hour before the session.
	mock.ExpectQuery(`SELECT (.+) FROM "reminder_tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "reminder_tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

	booking, err := svc.UpdateStatus(bookingID, mentorID, models.BookingAccepted, nil)
	require.NoError(t, err)
	require.Equal(t, models.BookingAccepted, booking.Status)
	require.NotNil(t, booking.MeetingURL)
	require.Contains(t, *booking.MeetingURL, "https://")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusForbiddenActor(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	bookingID, studentID, mentorID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings" (.+)FOR UPDATE`).
		WillReturnRows(bookingRow(bookingID, studentID, mentorID, models.BookingPending))
	mock.ExpectRollback()

	// The student may not accept their own request.
	_, err := svc.UpdateStatus(bookingID, studentID, models.BookingAccepted, nil)
	require.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusInvalidTransitionFromTerminal(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	bookingID, studentID, mentorID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings" (.+)FOR UPDATE`).
		WillReturnRows(bookingRow(bookingID, studentID, mentorID, models.BookingCancelled))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(bookingID, studentID, models.BookingCancelled, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings" (.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(bookingColumns))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(uuid.New(), uuid.New(), models.BookingAccepted, nil)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	db, _ := newTestDB(t)
	svc := newBookingService(db)

	_, err := svc.UpdateStatus(uuid.New(), uuid.New(), "rescheduled", nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestVerifyMentorAcceptsOwner(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	bookingID, mentorID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mentor_id"}).AddRow(bookingID, mentorID))

	require.NoError(t, svc.VerifyMentor(bookingID, mentorID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyMentorRejectsOtherUsers(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	bookingID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mentor_id"}).AddRow(bookingID, uuid.New()))

	err := svc.VerifyMentor(bookingID, uuid.New())
	require.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyMentorUnknownBooking(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mentor_id"}))

	err := svc.VerifyMentor(uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewValidatesRating(t *testing.T) {
	db, _ := newTestDB(t)
	svc := newBookingService(db)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.SubmitReview(SubmitReviewInput{BookingID: uuid.New(), StudentID: uuid.New(), Rating: rating})
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestSubmitReviewRequiresCompletedBooking(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	bookingID, studentID, mentorID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(bookingRow(bookingID, studentID, mentorID, models.BookingAccepted))
	mock.ExpectRollback()

	_, err := svc.SubmitReview(SubmitReviewInput{BookingID: bookingID, StudentID: studentID, Rating: 5})
	require.ErrorIs(t, err, ErrInvalidState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewRejectsOtherStudents(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	bookingID, studentID, mentorID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(bookingRow(bookingID, studentID, mentorID, models.BookingCompleted))
	mock.ExpectRollback()

	_, err := svc.SubmitReview(SubmitReviewInput{BookingID: bookingID, StudentID: uuid.New(), Rating: 5})
	require.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewDuplicate(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	bookingID, studentID, mentorID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(bookingRow(bookingID, studentID, mentorID, models.BookingCompleted))
	mock.ExpectQuery(`SELECT (.+) FROM "reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id"}).AddRow(uuid.New(), bookingID))
	mock.ExpectRollback()

	_, err := svc.SubmitReview(SubmitReviewInput{BookingID: bookingID, StudentID: studentID, Rating: 4})
	require.ErrorIs(t, err, ErrDuplicateReview)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewCreatesAndRecomputesRating(t *testing.T) {
	db, mock := newTestDB(t)
	svc := newBookingService(db)

	bookingID, studentID, mentorID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(bookingRow(bookingID, studentID, mentorID, models.BookingCompleted))
	mock.ExpectQuery(`SELECT (.+) FROM "reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(`SELECT COALESCE\(AVG\(rating\), 0\) as avg, COUNT\(id\) as total FROM "reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "total"}).AddRow(4.666666, 3))
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	review, err := svc.SubmitReview(SubmitReviewInput{
		BookingID: bookingID,
		StudentID: studentID,
		Rating:    5,
		Comment:   "Very helpful session",
	})
	require.NoError(t, err)
	require.Equal(t, 5, review.Rating)
	require.Equal(t, mentorID, review.MentorID)
	require.NoError(t, mock.ExpectationsWereMet())
}
