package db

import (
	"testing"

	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), GormConfig(false))
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(d); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSeedIdempotent(t *testing.T) {
	d := openTestDB(t)
	opts := SeedOptions{SellerUsername: "sprzedawca", SellerPassword: "tajne", DemoCatalog: true}
	if err := Seed(d, opts); err != nil {
		t.Fatal(err)
	}
	opts.SellerPassword = "inne"
	if err := Seed(d, opts); err != nil {
		t.Fatal(err)
	}

	var users, products int64
	d.Model(&models.User{}).Count(&users)
	d.Model(&models.Product{}).Count(&products)
	if users != 1 {
		t.Fatalf("expected 1 seller got %d", users)
	}
	if products != int64(len(demoCatalog)) {
		t.Fatalf("expected %d products got %d", len(demoCatalog), products)
	}

	var u models.User
	d.Where("username = ?", "sprzedawca").First(&u)
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("tajne")) != nil {
		t.Fatalf("existing seller password must be kept")
	}

	var p models.Product
	d.Where("product_key = ?", "chleb_żytni").First(&p)
	if !p.Available || p.Unit != models.UnitPiece {
		t.Fatalf("unexpected seeded product %+v", p)
	}
}

func TestSeedWithoutPasswordSkipsSeller(t *testing.T) {
	d := openTestDB(t)
	if err := Seed(d, SeedOptions{SellerUsername: "sprzedawca"}); err != nil {
		t.Fatal(err)
	}
	var users int64
	d.Model(&models.User{}).Count(&users)
	if users != 0 {
		t.Fatalf("expected no seller got %d", users)
	}
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{config.DriverPostgres, config.DriverMySQL, config.DriverSQLite} {
		if _, err := Dialector(config.DatabaseConfig{Driver: driver}); err != nil {
			t.Fatalf("%s: %v", driver, err)
		}
	}
	if _, err := Dialector(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestRunSQLMigrationsNeedsPostgres(t *testing.T) {
	if err := RunSQLMigrations(config.DatabaseConfig{Driver: config.DriverSQLite}, "migrations"); err == nil {
		t.Fatalf("expected error for sqlite")
	}
}
