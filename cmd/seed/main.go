package main

import (
	"flag"
	"fmt"
	"math"
	"time"

	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/logger"
	"github.com/padala-next/internal/models"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
	"github.com/schollz/progressbar/v3"
	"gorm.io/gorm"
)

// city 种子数据城市中心与覆盖半径
type city struct {
	Name     string
	Lat      float64
	Lng      float64
	RadiusKm float64
}

var cities = []city{
	{Name: "Makati", Lat: 14.5547, Lng: 121.0244, RadiusKm: 4},
	{Name: "Quezon City", Lat: 14.6760, Lng: 121.0437, RadiusKm: 8},
	{Name: "Cebu City", Lat: 10.3157, Lng: 123.8854, RadiusKm: 6},
}

var vehicleTypes = []string{"motorcycle", "motorcycle", "motorcycle", "bicycle", "car"}

func main() {
	var (
		cfgFile        string
		restaurantsPer int
		driversPer     int
		ordersPer      int
	)
	flag.StringVar(&cfgFile, "config", "", "配置文件路径")
	flag.IntVar(&restaurantsPer, "restaurants", 10, "每个城市的商家数量")
	flag.IntVar(&driversPer, "drivers", 25, "每个城市的骑手数量")
	flag.IntVar(&ordersPer, "orders", 40, "每个城市的待派单订单数量")
	flag.Parse()

	// 连接数据库
	cfg := config.LoadFile(cfgFile)
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	s := &seeder{db: models.DB, fake: faker.New()}
	for _, c := range cities {
		total := restaurantsPer + driversPer + ordersPer
		bar := progressbar.Default(int64(total), "seeding "+c.Name)

		restaurants, err := s.seedRestaurants(c, restaurantsPer, bar)
		if err != nil {
			stdLog.Fatalf("Failed to seed restaurants: %v", err)
		}
		if err := s.seedDrivers(c, driversPer, bar); err != nil {
			stdLog.Fatalf("Failed to seed drivers: %v", err)
		}
		if err := s.seedOrders(c, restaurants, ordersPer, bar); err != nil {
			stdLog.Fatalf("Failed to seed orders: %v", err)
		}
		_ = bar.Finish()
	}

	fmt.Println("Seed data created successfully!")
}

type seeder struct {
	db   *gorm.DB
	fake faker.Faker
}

// randomPoint 在城市中心 radiusKm 范围内随机取点
func (s *seeder) randomPoint(c city) (float64, float64) {
	km := c.RadiusKm * math.Sqrt(s.fake.Float64(4, 0, 1))
	bearing := s.fake.Float64(4, 0, 360) * math.Pi / 180
	dLat := km * math.Cos(bearing) / 111.0
	dLng := km * math.Sin(bearing) / (111.0 * math.Cos(c.Lat*math.Pi/180))
	return c.Lat + dLat, c.Lng + dLng
}

func (s *seeder) newUser() (*models.User, error) {
	person := s.fake.Person()
	user := &models.User{
		FirstName: person.FirstName(),
		LastName:  person.LastName(),
		Email:     s.fake.Internet().Email(),
		Phone:     "09" + s.fake.Numerify("#########"),
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *seeder) seedRestaurants(c city, n int, bar *progressbar.ProgressBar) ([]models.Restaurant, error) {
	rows := make([]models.Restaurant, 0, n)
	for i := 0; i < n; i++ {
		owner, err := s.newUser()
		if err != nil {
			return nil, err
		}
		lat, lng := s.randomPoint(c)
		restaurant := models.Restaurant{
			OwnerID:         owner.ID,
			Name:            s.fake.Company().Name(),
			Phone:           owner.Phone,
			City:            c.Name,
			Address:         s.fake.Address().StreetAddress(),
			Latitude:        lat,
			Longitude:       lng,
			PrepTimeMinutes: s.fake.IntBetween(10, 45),
			PayoutAccount:   s.fake.Numerify("####-####-##"),
			PayoutName:      owner.FullName(),
			IsActive:        true,
		}
		if err := s.db.Create(&restaurant).Error; err != nil {
			return nil, err
		}
		rows = append(rows, restaurant)
		_ = bar.Add(1)
	}
	return rows, nil
}

func (s *seeder) seedDrivers(c city, n int, bar *progressbar.ProgressBar) error {
	for i := 0; i < n; i++ {
		user, err := s.newUser()
		if err != nil {
			return err
		}
		lat, lng := s.randomPoint(c)
		now := time.Now().UTC()
		driver := models.Driver{
			UserID:          user.ID,
			VehicleType:     s.fake.RandomStringElement(vehicleTypes),
			VehicleNumber:   s.fake.Bothify("???-####"),
			CurrentCity:     c.Name,
			CurrentLat:      &lat,
			CurrentLng:      &lng,
			Rating:          math.Round(s.fake.Float64(2, 3, 5)*10) / 10,
			TotalDeliveries: s.fake.IntBetween(0, 800),
			TotalEarnings:   models.MustMoney("0"),
			GCashNumber:     "09" + s.fake.Numerify("#########"),
			LastLocationAt:  &now,
		}
		if err := s.db.Create(&driver).Error; err != nil {
			return err
		}
		// 约八成骑手在线空闲；bool 零值需创建后显式写入
		online := s.fake.IntBetween(1, 10) <= 8
		if err := s.db.Model(&models.Driver{}).Where("id = ?", driver.ID).Updates(map[string]interface{}{
			"is_online":    online,
			"is_available": online,
		}).Error; err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	return nil
}

func (s *seeder) seedOrders(c city, restaurants []models.Restaurant, n int, bar *progressbar.ProgressBar) error {
	if len(restaurants) == 0 {
		_ = bar.Add(n)
		return nil
	}
	for i := 0; i < n; i++ {
		customer, err := s.newUser()
		if err != nil {
			return err
		}
		restaurant := restaurants[s.fake.IntBetween(0, len(restaurants)-1)]
		lat, lng := s.randomPoint(c)
		subtotal := models.NewMoneyFromFloat(float64(s.fake.IntBetween(150, 1500)))
		order := models.Order{
			OrderNumber:     "PD-" + cuid.New(),
			RestaurantID:    restaurant.ID,
			CustomerID:      customer.ID,
			Status:          constants.OrderStatusPending,
			Subtotal:        subtotal,
			TotalAmount:     subtotal,
			DeliveryAddress: s.fake.Address().StreetAddress(),
			DeliveryLat:     lat,
			DeliveryLng:     lng,
		}
		if err := s.db.Create(&order).Error; err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	return nil
}
