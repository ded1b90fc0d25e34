package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/padala-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func seedDriver(t *testing.T, db *gorm.DB, city string, lat, lng *float64, available, online bool) models.Driver {
	t.Helper()
	user := models.User{FirstName: "Juan", LastName: fmt.Sprintf("dela Cruz %d", time.Now().UnixNano()), Phone: "09171234567"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	driver := models.Driver{
		UserID:        user.ID,
		VehicleType:   "motorcycle",
		CurrentCity:   city,
		CurrentLat:    lat,
		CurrentLng:    lng,
		Rating:        4.5,
		TotalEarnings: models.MustMoney("0"),
	}
	if err := db.Create(&driver).Error; err != nil {
		t.Fatalf("create driver failed: %v", err)
	}
	if err := db.Model(&driver).Updates(map[string]interface{}{
		"is_available": available,
		"is_online":    online,
	}).Error; err != nil {
		t.Fatalf("update driver flags failed: %v", err)
	}
	return driver
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestDriverRepositoryListAvailable(t *testing.T) {
	db := setupRepositoryTest(t, "driver_repo_list")
	repo := NewDriverRepository(db)

	a := seedDriver(t, db, "Makati", floatPtr(14.55), floatPtr(121.02), true, true)
	seedDriver(t, db, "Makati", floatPtr(14.56), floatPtr(121.03), false, true)
	seedDriver(t, db, "Makati", floatPtr(14.56), floatPtr(121.03), true, false)
	seedDriver(t, db, "Makati", nil, nil, true, true)
	seedDriver(t, db, "Pasig", floatPtr(14.57), floatPtr(121.06), true, true)
	b := seedDriver(t, db, "Makati", floatPtr(14.57), floatPtr(121.01), true, true)

	rows, err := repo.ListAvailable(DriverAvailabilityFilter{City: "Makati"})
	if err != nil {
		t.Fatalf("list available failed: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != a.ID || rows[1].ID != b.ID {
		t.Fatalf("unexpected available drivers: %+v", rows)
	}
	if rows[0].User.ID == 0 {
		t.Fatalf("user should be preloaded")
	}

	rows, err = repo.ListAvailable(DriverAvailabilityFilter{City: "Makati", ExcludeIDs: []uint{a.ID}})
	if err != nil {
		t.Fatalf("list available with exclusion failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != b.ID {
		t.Fatalf("exclusion not applied: %+v", rows)
	}

	for _, city := range []string{"", "   "} {
		rows, err = repo.ListAvailable(DriverAvailabilityFilter{City: city})
		if err != nil {
			t.Fatalf("list available with blank city failed: %v", err)
		}
		if rows == nil || len(rows) != 0 {
			t.Fatalf("blank city should match no drivers, got %+v", rows)
		}
	}
}

func TestDriverRepositoryClaimRelease(t *testing.T) {
	db := setupRepositoryTest(t, "driver_repo_claim")
	repo := NewDriverRepository(db)
	driver := seedDriver(t, db, "Makati", floatPtr(14.55), floatPtr(121.02), true, true)
	now := time.Now().UTC()

	ok, err := repo.Claim(driver.ID, now)
	if err != nil || !ok {
		t.Fatalf("first claim should succeed: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Claim(driver.ID, now)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if ok {
		t.Fatalf("second claim should not succeed")
	}
	if err := repo.Release(driver.ID, now); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	ok, err = repo.Claim(driver.ID, now)
	if err != nil || !ok {
		t.Fatalf("claim after release should succeed: ok=%v err=%v", ok, err)
	}
}

func TestDriverRepositoryUpdateLocationAndEarnings(t *testing.T) {
	db := setupRepositoryTest(t, "driver_repo_location")
	repo := NewDriverRepository(db)
	driver := seedDriver(t, db, "Makati", nil, nil, true, true)
	now := time.Now().UTC()

	ok, err := repo.UpdateLocation(driver.ID, 14.6, 121.05, now)
	if err != nil || !ok {
		t.Fatalf("update location failed: ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateLocation(driver.ID+100, 14.6, 121.05, now)
	if err != nil {
		t.Fatalf("update missing driver failed: %v", err)
	}
	if ok {
		t.Fatalf("missing driver should report not updated")
	}

	if err := repo.AddEarnings(driver.ID, decimal.RequireFromString("50")); err != nil {
		t.Fatalf("add earnings failed: %v", err)
	}
	if err := repo.AddEarnings(driver.ID, decimal.RequireFromString("72.5")); err != nil {
		t.Fatalf("add earnings failed: %v", err)
	}
	stored, err := repo.GetByID(driver.ID)
	if err != nil || stored == nil {
		t.Fatalf("get driver failed: %v", err)
	}
	if !stored.HasLocation() || *stored.CurrentLat != 14.6 || stored.LastLocationAt == nil {
		t.Fatalf("location not stored: %+v", stored)
	}
	if stored.TotalEarnings.String() != "122.50" {
		t.Fatalf("total earnings want 122.50 got %s", stored.TotalEarnings.String())
	}

	missing, err := repo.GetByID(driver.ID + 100)
	if err != nil || missing != nil {
		t.Fatalf("missing driver should return nil, nil: %+v %v", missing, err)
	}
}
