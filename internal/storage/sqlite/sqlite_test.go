package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T, rooms int) *SQLite {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	n, err := s.SeedRooms(context.Background(), 101, rooms)
	require.NoError(t, err)
	require.Equal(t, rooms, n)
	return s
}

func newStudent(name string) types.NewStudent {
	return types.NewStudent{
		Username:     name,
		PasswordHash: "hash-" + name,
		FullName:     "Student " + name,
	}
}

// assertRoomInvariant checks occupied <=> occupant and that no student
// holds two rooms.
func assertRoomInvariant(t *testing.T, s *SQLite) {
	t.Helper()
	rooms, err := s.ListRooms(context.Background())
	require.NoError(t, err)

	seen := make(map[int64]int)
	for _, r := range rooms {
		assert.Equal(t, r.Occupied, r.StudentID != nil, "room %d", r.Number)
		if r.StudentID != nil {
			seen[*r.StudentID]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "student %d holds %d rooms", id, n)
	}
}

func TestSeedRooms_OnlyOnce(t *testing.T) {
	s := setupDB(t, 3)
	ctx := context.Background()

	n, err := s.SeedRooms(ctx, 101, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	occ, err := s.Occupancy(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Occupancy{Total: 3, Occupied: 0}, occ)
}

func TestRegisterStudent_ClaimsLowestFreeRoom(t *testing.T) {
	s := setupDB(t, 3)
	ctx := context.Background()

	u1, r1, err := s.RegisterStudent(ctx, newStudent("asha"))
	require.NoError(t, err)
	assert.Equal(t, 101, r1.Number)
	require.NotNil(t, r1.StudentID)
	assert.Equal(t, u1.ID, *r1.StudentID)
	require.NotNil(t, u1.RoomNumber)
	assert.Equal(t, 101, *u1.RoomNumber)

	_, r2, err := s.RegisterStudent(ctx, newStudent("bilal"))
	require.NoError(t, err)
	assert.Equal(t, 102, r2.Number)

	loaded, err := s.GetUserByID(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RoleStudent, loaded.Role)
	require.NotNil(t, loaded.RoomNumber)
	assert.Equal(t, 101, *loaded.RoomNumber)

	assertRoomInvariant(t, s)
}

func TestRegisterStudent_DuplicateUsername(t *testing.T) {
	s := setupDB(t, 3)
	ctx := context.Background()

	_, _, err := s.RegisterStudent(ctx, newStudent("asha"))
	require.NoError(t, err)

	_, _, err = s.RegisterStudent(ctx, newStudent("asha"))
	assert.ErrorIs(t, err, types.ErrDuplicateUsername)

	occ, err := s.Occupancy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, occ.Occupied)
}

func TestRegisterStudent_FullHostelLeavesNoOrphan(t *testing.T) {
	s := setupDB(t, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := s.RegisterStudent(ctx, newStudent(fmt.Sprintf("s%d", i)))
		require.NoError(t, err)
	}

	_, _, err := s.RegisterStudent(ctx, newStudent("late"))
	assert.ErrorIs(t, err, types.ErrNoVacancy)

	_, err = s.GetUserByUsername(ctx, "late")
	assert.ErrorIs(t, err, types.ErrNotFound)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 5)
	assertRoomInvariant(t, s)
}

func TestRegisterStudent_ConcurrentNeverOverAssigns(t *testing.T) {
	s := setupDB(t, 4)
	ctx := context.Background()

	const workers = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		noVacant int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.RegisterStudent(ctx, newStudent(fmt.Sprintf("c%d", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, types.ErrNoVacancy):
				noVacant++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, ok)
	assert.Equal(t, workers-4, noVacant)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 4)
	assertRoomInvariant(t, s)
}

func TestReleaseRoom_BalanceRules(t *testing.T) {
	s := setupDB(t, 2)
	ctx := context.Background()
	now := time.Now()

	u, room, err := s.RegisterStudent(ctx, newStudent("asha"))
	require.NoError(t, err)

	n, err := s.ChargeActiveStudents(ctx, "January 2025", types.Whole(3000), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.AddPayment(ctx, u.ID, types.Whole(1000), now)
	require.NoError(t, err)

	_, err = s.ReleaseRoom(ctx, u.ID)
	assert.ErrorIs(t, err, types.ErrOutstandingBalance)

	_, err = s.AddPayment(ctx, u.ID, types.Whole(2000), now)
	require.NoError(t, err)

	released, err := s.ReleaseRoom(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Number, released.Number)
	assert.False(t, released.Occupied)
	assert.Nil(t, released.StudentID)

	loaded, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.RoomNumber)

	_, err = s.ReleaseRoom(ctx, u.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	assertRoomInvariant(t, s)
}

func TestAssignRoom(t *testing.T) {
	s := setupDB(t, 2)
	ctx := context.Background()

	asha, _, err := s.RegisterStudent(ctx, newStudent("asha"))
	require.NoError(t, err)

	_, err = s.AssignRoom(ctx, asha.ID)
	assert.ErrorIs(t, err, types.ErrAlreadyAssigned)

	_, err = s.ReleaseRoom(ctx, asha.ID)
	require.NoError(t, err)

	room, err := s.AssignRoom(ctx, asha.ID)
	require.NoError(t, err)
	assert.Equal(t, 101, room.Number)

	_, err = s.AssignRoom(ctx, 999)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Fill the hostel while asha is out.
	_, err = s.ReleaseRoom(ctx, asha.ID)
	require.NoError(t, err)
	_, _, err = s.RegisterStudent(ctx, newStudent("bilal"))
	require.NoError(t, err)
	_, _, err = s.RegisterStudent(ctx, newStudent("chen"))
	require.NoError(t, err)

	_, err = s.AssignRoom(ctx, asha.ID)
	assert.ErrorIs(t, err, types.ErrNoVacancy)
	assertRoomInvariant(t, s)
}

func TestLedger_BalanceIdentity(t *testing.T) {
	s := setupDB(t, 3)
	ctx := context.Background()
	now := time.Now()

	a, _, err := s.RegisterStudent(ctx, newStudent("asha"))
	require.NoError(t, err)
	b, _, err := s.RegisterStudent(ctx, newStudent("bilal"))
	require.NoError(t, err)

	_, err = s.ChargeActiveStudents(ctx, "January 2025", types.Whole(3000), now)
	require.NoError(t, err)
	_, err = s.ChargeActiveStudents(ctx, "February 2025", types.Money(250050), now)
	require.NoError(t, err)
	_, err = s.AddPayment(ctx, a.ID, types.Money(100025), now)
	require.NoError(t, err)
	_, err = s.AddPayment(ctx, b.ID, types.Whole(9000), now)
	require.NoError(t, err)

	for _, id := range []int64{a.ID, b.ID} {
		st, err := s.Statement(ctx, id)
		require.NoError(t, err)

		var charged, paid types.Money
		for _, c := range st.Charges {
			charged += c.Amount
		}
		for _, p := range st.Payments {
			paid += p.Amount
		}
		assert.Equal(t, charged, st.TotalCharged)
		assert.Equal(t, paid, st.TotalPaid)
		assert.Equal(t, charged-paid, st.Balance)

		bal, err := balanceOf(ctx, s.Db, id)
		require.NoError(t, err)
		assert.Equal(t, st.Balance, bal)
	}

	stA, err := s.Statement(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Money(550050-100025), stA.Balance)

	stB, err := s.Statement(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Money(550050-900000), stB.Balance)
	assert.Negative(t, int64(stB.Balance))
}

func TestChargeActiveStudents_NotIdempotentAndSkipsVacated(t *testing.T) {
	s := setupDB(t, 3)
	ctx := context.Background()
	now := time.Now()

	a, _, err := s.RegisterStudent(ctx, newStudent("asha"))
	require.NoError(t, err)
	b, _, err := s.RegisterStudent(ctx, newStudent("bilal"))
	require.NoError(t, err)
	_, err = s.ReleaseRoom(ctx, b.ID)
	require.NoError(t, err)

	charged, err := s.PeriodCharged(ctx, "March 2025")
	require.NoError(t, err)
	assert.False(t, charged)

	for i := 0; i < 2; i++ {
		n, err := s.ChargeActiveStudents(ctx, "March 2025", types.Whole(1000), now)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	charged, err = s.PeriodCharged(ctx, "March 2025")
	require.NoError(t, err)
	assert.True(t, charged)

	st, err := s.Statement(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, st.Charges, 2)
	assert.Equal(t, types.Whole(2000), st.Balance)

	stB, err := s.Statement(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, stB.Charges)
}

func TestAddPayment_ChargeStatusFollowsPayments(t *testing.T) {
	s := setupDB(t, 1)
	ctx := context.Background()
	now := time.Now()

	u, _, err := s.RegisterStudent(ctx, newStudent("asha"))
	require.NoError(t, err)
	_, err = s.ChargeActiveStudents(ctx, "January 2025", types.Whole(3000), now)
	require.NoError(t, err)
	_, err = s.ChargeActiveStudents(ctx, "February 2025", types.Whole(3000), now)
	require.NoError(t, err)

	_, err = s.AddPayment(ctx, u.ID, types.Whole(4000), now)
	require.NoError(t, err)

	st, err := s.Statement(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, st.Charges, 2)
	assert.Equal(t, types.ChargePaid, st.Charges[0].Status)
	assert.Equal(t, types.ChargePending, st.Charges[1].Status)

	_, err = s.AddPayment(ctx, u.ID, types.Whole(2000), now)
	require.NoError(t, err)

	st, err = s.Statement(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ChargePaid, st.Charges[1].Status)
}

func TestAddPayment_UnknownStudent(t *testing.T) {
	s := setupDB(t, 1)
	_, err := s.AddPayment(context.Background(), 42, types.Whole(10), time.Now())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPendingDues(t *testing.T) {
	s := setupDB(t, 3)
	ctx := context.Background()
	now := time.Now()

	a, _, err := s.RegisterStudent(ctx, newStudent("asha"))
	require.NoError(t, err)
	b, _, err := s.RegisterStudent(ctx, newStudent("bilal"))
	require.NoError(t, err)

	_, err = s.ChargeActiveStudents(ctx, "January 2025", types.Whole(3000), now)
	require.NoError(t, err)
	_, err = s.AddPayment(ctx, b.ID, types.Whole(3000), now)
	require.NoError(t, err)

	dues, err := s.PendingDues(ctx)
	require.NoError(t, err)
	require.Len(t, dues, 1)
	assert.Equal(t, a.ID, dues[0].StudentID)
	assert.Equal(t, types.Whole(3000), dues[0].Amount)
	require.NotNil(t, dues[0].RoomNumber)
	assert.Equal(t, 101, *dues[0].RoomNumber)
}

func TestComplaints(t *testing.T) {
	s := setupDB(t, 2)
	ctx := context.Background()

	a, _, err := s.RegisterStudent(ctx, newStudent("asha"))
	require.NoError(t, err)
	b, _, err := s.RegisterStudent(ctx, newStudent("bilal"))
	require.NoError(t, err)

	c1, err := s.CreateComplaint(ctx, types.Complaint{
		Title: "Leaking tap", Description: "Bathroom tap drips", StudentID: a.ID, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, types.ComplaintPending, c1.Status)
	assert.NotZero(t, c1.ID)

	_, err = s.CreateComplaint(ctx, types.Complaint{
		Title: "Fan", Description: "Ceiling fan broken", AttachmentRef: "x.jpg", StudentID: b.ID, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = s.CreateComplaint(ctx, types.Complaint{Title: "x", Description: "y", StudentID: 999})
	assert.ErrorIs(t, err, types.ErrNotFound)

	all, err := s.ListComplaints(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Fan", all[0].Title)

	mine, err := s.ListComplaints(ctx, &a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, c1.ID, mine[0].ID)

	resolved, err := s.ResolveComplaint(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ComplaintResolved, resolved.Status)

	again, err := s.ResolveComplaint(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ComplaintResolved, again.Status)

	_, err = s.ResolveComplaint(ctx, 12345)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	s := setupDB(t, 1)
	ctx := context.Background()

	created, err := s.EnsureAdmin(ctx, "admin", "hash", "System Administrator")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureAdmin(ctx, "admin", "other", "x")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, admin.Role)
	assert.Equal(t, "hash", admin.PasswordHash)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)

	// An admin is not a student: room and ledger operations refuse it.
	_, err = s.AssignRoom(ctx, admin.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
