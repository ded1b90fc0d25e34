package service

import (
	"context"
	"testing"
)

func TestFindAvailableDriversFilters(t *testing.T) {
	env := newTestEnv(t, "pool_filters")
	pool := NewDriverPool(env.driverRepo)

	eligible := env.createDriver(t, driverOpts{city: "Makati", at: pointPtr(offsetNorth(makati, 2)), rating: 4.8, available: true, online: true})
	env.createDriver(t, driverOpts{city: "Makati", at: pointPtr(offsetNorth(makati, 3)), rating: 5, available: false, online: true})
	env.createDriver(t, driverOpts{city: "Makati", at: pointPtr(offsetNorth(makati, 3)), rating: 5, available: true, online: false})
	env.createDriver(t, driverOpts{city: "Makati", rating: 5, available: true, online: true})
	env.createDriver(t, driverOpts{city: "Taguig", at: pointPtr(offsetNorth(makati, 1)), rating: 5, available: true, online: true})
	env.createDriver(t, driverOpts{city: "Makati", at: pointPtr(offsetNorth(makati, 16)), rating: 5, available: true, online: true})
	edge := env.createDriver(t, driverOpts{city: "Makati", at: pointPtr(offsetNorth(makati, 14.9)), rating: 3, available: true, online: true})

	drivers, err := pool.FindAvailableDrivers(context.Background(), "Makati", makati, 15)
	if err != nil {
		t.Fatalf("find drivers failed: %v", err)
	}
	if len(drivers) != 2 {
		t.Fatalf("want 2 eligible drivers got %d", len(drivers))
	}
	if drivers[0].ID != eligible.ID || drivers[1].ID != edge.ID {
		t.Fatalf("unexpected drivers: %d, %d", drivers[0].ID, drivers[1].ID)
	}
	if drivers[0].User.ID == 0 {
		t.Fatalf("driver user should be preloaded")
	}

	excluded, err := pool.FindAvailableDrivers(context.Background(), "Makati", makati, 15, eligible.ID)
	if err != nil {
		t.Fatalf("find drivers with exclusion failed: %v", err)
	}
	if len(excluded) != 1 || excluded[0].ID != edge.ID {
		t.Fatalf("exclusion not applied: %+v", excluded)
	}

	narrow, err := pool.FindAvailableDrivers(context.Background(), "Makati", makati, 5)
	if err != nil {
		t.Fatalf("find drivers in narrow radius failed: %v", err)
	}
	if len(narrow) != 1 || narrow[0].ID != eligible.ID {
		t.Fatalf("radius not applied: %+v", narrow)
	}
}

func TestFindAvailableDriversEmpty(t *testing.T) {
	env := newTestEnv(t, "pool_empty")
	pool := NewDriverPool(env.driverRepo)
	drivers, err := pool.FindAvailableDrivers(context.Background(), "Cebu", makati, 15)
	if err != nil {
		t.Fatalf("find drivers failed: %v", err)
	}
	if len(drivers) != 0 {
		t.Fatalf("want no drivers got %d", len(drivers))
	}
}
