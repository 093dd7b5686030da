package assign_test

import (
	"context"
	"testing"

	"github.com/civicworks/civicd/internal/assign"
	"github.com/civicworks/civicd/pkg/models"
	"github.com/civicworks/civicd/pkg/repository/mock"
)

func addWorker(t *testing.T, store *mock.Store, district string, departmentID int64) int64 {
	t.Helper()
	ctx := context.Background()

	userID, err := store.CreateUser(ctx, &models.User{
		FullName: "w",
		Email:    district + "-worker@example.com",
		Role:     models.RoleWorker,
		District: district,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	// mock allows duplicate emails; keep them unique anyway
	workerID, err := store.CreateWorker(ctx, &models.Worker{UserID: userID, DepartmentID: departmentID})
	if err != nil {
		t.Fatalf("CreateWorker: %v", err)
	}
	return workerID
}

func addAssignedReport(t *testing.T, store *mock.Store, district string, workerID int64) {
	t.Helper()
	ctx := context.Background()

	id, err := store.CreateReport(ctx, &models.Report{
		Title:       "r",
		ProblemType: "pothole",
		District:    district,
		Status:      models.StatusPending,
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if ok, err := store.AssignReport(ctx, id, workerID); err != nil || !ok {
		t.Fatalf("AssignReport: ok=%v err=%v", ok, err)
	}
}

func TestFind_PicksLeastLoaded(t *testing.T) {
	store := mock.NewStore()
	deptID, _ := store.CreateDepartment(context.Background(), "Roads")

	busy := addWorker(t, store, "Sirsa", deptID)
	idle := addWorker(t, store, "Sirsa", deptID)
	addAssignedReport(t, store, "Sirsa", busy)
	addAssignedReport(t, store, "Sirsa", busy)

	m := assign.NewMatcher(store, 3)
	got, err := m.Find(context.Background(), deptID, "Sirsa")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got == nil || got.ID != idle {
		t.Fatalf("expected least-loaded worker %d, got %+v", idle, got)
	}
}

func TestFind_TieBreaksByLowestID(t *testing.T) {
	store := mock.NewStore()
	deptID, _ := store.CreateDepartment(context.Background(), "Roads")

	first := addWorker(t, store, "Sirsa", deptID)
	addWorker(t, store, "Sirsa", deptID)

	m := assign.NewMatcher(store, 3)
	got, err := m.Find(context.Background(), deptID, "Sirsa")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got == nil || got.ID != first {
		t.Fatalf("expected lowest-id worker %d on tie, got %+v", first, got)
	}
}

func TestFind_RespectsCapacity(t *testing.T) {
	store := mock.NewStore()
	deptID, _ := store.CreateDepartment(context.Background(), "Electrical")

	w := addWorker(t, store, "Panipat", deptID)
	addAssignedReport(t, store, "Panipat", w)

	m := assign.NewMatcher(store, 1)
	got, err := m.Find(context.Background(), deptID, "Panipat")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil when all workers are at capacity, got %+v", got)
	}
}

func TestFind_FiltersDistrictAndActive(t *testing.T) {
	store := mock.NewStore()
	ctx := context.Background()
	deptID, _ := store.CreateDepartment(ctx, "Water")

	other := addWorker(t, store, "Hisar", deptID)
	_ = other
	inactive := addWorker(t, store, "Ambala", deptID)
	if _, err := store.DeactivateWorker(ctx, inactive); err != nil {
		t.Fatalf("DeactivateWorker: %v", err)
	}

	m := assign.NewMatcher(store, 3)
	got, err := m.Find(ctx, deptID, "Ambala")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no candidate in Ambala, got %+v", got)
	}
}

func TestFind_AdvisoryCounterIsIgnored(t *testing.T) {
	store := mock.NewStore()
	ctx := context.Background()
	deptID, _ := store.CreateDepartment(ctx, "Roads")

	// a drifted advisory counter must not block a worker with no live load
	userID, _ := store.CreateUser(ctx, &models.User{Role: models.RoleWorker, District: "Sirsa", Email: "drift@example.com"})
	workerID, _ := store.CreateWorker(ctx, &models.Worker{UserID: userID, DepartmentID: deptID, DailyTaskCount: 99})

	m := assign.NewMatcher(store, 3)
	got, err := m.Find(ctx, deptID, "Sirsa")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got == nil || got.ID != workerID {
		t.Fatalf("expected worker selected despite drifted advisory counter, got %+v", got)
	}
}
