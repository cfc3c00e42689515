// Package seed fills a development database with partners, diners, food
// videos and engagement. It is not used by the running API.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"blackdonut/internal/middleware"
	"blackdonut/internal/models"
	"blackdonut/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "password123"

// Options controls how much data a run creates.
type Options struct {
	Partners        int     `yaml:"partners"`
	FoodsPerPartner int     `yaml:"foods_per_partner"`
	Users           int     `yaml:"users"`
	CommentsPerFood int     `yaml:"comments_per_food"`
	LikeRatio       float64 `yaml:"like_ratio"`
	SaveRatio       float64 `yaml:"save_ratio"`
	PinRatio        float64 `yaml:"pin_ratio"`
	Clean           bool    `yaml:"clean"`
	Seed            int64   `yaml:"seed"`
}

// DefaultOptions is a small but lively dataset.
func DefaultOptions() Options {
	return Options{
		Partners:        4,
		FoodsPerPartner: 5,
		Users:           20,
		CommentsPerFood: 4,
		LikeRatio:       0.4,
		SaveRatio:       0.15,
		PinRatio:        0.2,
	}
}

// LoadPreset reads options from a YAML file. Keys missing from the file keep
// their default values.
func LoadPreset(path string) (Options, error) {
	opts := DefaultOptions()
	raw, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read preset: %w", err)
	}
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("parse preset %s: %w", path, err)
	}
	return opts, opts.validate()
}

func (o Options) validate() error {
	if o.Partners < 0 || o.FoodsPerPartner < 0 || o.Users < 0 || o.CommentsPerFood < 0 {
		return fmt.Errorf("seed counts must not be negative")
	}
	for name, r := range map[string]float64{"like_ratio": o.LikeRatio, "save_ratio": o.SaveRatio, "pin_ratio": o.PinRatio} {
		if r < 0 || r > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	return nil
}

// Result summarizes what a run created.
type Result struct {
	Partners int
	Users    int
	Foods    int
	Comments int
	Likes    int
	Saves    int
}

// Run seeds db according to opts and reconciles the food counters afterwards.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Clean {
		if err := Clean(db); err != nil {
			return nil, err
		}
	}

	f := newFactory(db, opts)
	res := &Result{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f.db = tx

		partners, err := f.partners(opts.Partners)
		if err != nil {
			return err
		}
		users, err := f.users(opts.Users)
		if err != nil {
			return err
		}
		res.Partners, res.Users = len(partners), len(users)

		for _, p := range partners {
			foods, err := f.foods(p, opts.FoodsPerPartner)
			if err != nil {
				return err
			}
			res.Foods += len(foods)

			for _, food := range foods {
				n, err := f.comments(food, users, opts.CommentsPerFood)
				if err != nil {
					return err
				}
				res.Comments += n

				likes, saves, err := f.engagement(food, users)
				if err != nil {
					return err
				}
				res.Likes += likes
				res.Saves += saves
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := repository.NewFoodRepository(db).ReconcileCounters(ctx); err != nil {
		return nil, fmt.Errorf("reconcile counters: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		"partners", res.Partners, "users", res.Users, "foods", res.Foods,
		"comments", res.Comments, "likes", res.Likes, "saves", res.Saves)
	return res, nil
}

// Clean removes all application rows, children first.
func Clean(db *gorm.DB) error {
	for _, table := range []string{"comments", "likes", "saves", "foods", "users", "food_partners"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clean %s: %w", table, err)
		}
	}
	return nil
}

// factory builds and persists entities with fake content.
type factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	hash string
}

func newFactory(db *gorm.DB, opts Options) *factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed))}
}

func (f *factory) password() (string, error) {
	if f.hash == "" {
		// MinCost keeps large seeds fast; these accounts are never real.
		h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
		if err != nil {
			return "", err
		}
		f.hash = string(h)
	}
	return f.hash, nil
}

func (f *factory) partners(n int) ([]*models.FoodPartner, error) {
	hash, err := f.password()
	if err != nil {
		return nil, err
	}
	out := make([]*models.FoodPartner, 0, n)
	for i := 0; i < n; i++ {
		p := &models.FoodPartner{
			Name:            gofakeit.Company() + " Kitchen",
			ContactName:     gofakeit.Name(),
			Phone:           gofakeit.Phone(),
			Address:         gofakeit.Street() + ", " + gofakeit.City(),
			Email:           fmt.Sprintf("partner%d.%s@seed.blackdonut.dev", i+1, gofakeit.LetterN(4)),
			Password:        hash,
			ProfileImage:    fmt.Sprintf("https://picsum.photos/seed/%s/400/400", gofakeit.UUID()),
			CustomersServed: f.rng.Intn(5000),
		}
		if err := f.db.Create(p).Error; err != nil {
			return nil, fmt.Errorf("create partner: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *factory) users(n int) ([]*models.User, error) {
	hash, err := f.password()
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u := &models.User{
			FullName: gofakeit.Name(),
			Email:    fmt.Sprintf("diner%d.%s@seed.blackdonut.dev", i+1, gofakeit.LetterN(4)),
			Password: hash,
		}
		if err := f.db.Create(u).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		out = append(out, u)
	}
	return out, nil
}

var sampleVideos = []string{
	"https://res.cloudinary.com/demo/video/upload/samples/cooking.mp4",
	"https://res.cloudinary.com/demo/video/upload/samples/food/fish-vegetables.mp4",
	"https://res.cloudinary.com/demo/video/upload/samples/food/spices.mp4",
	"https://res.cloudinary.com/demo/video/upload/samples/food/pot-mussels.mp4",
}

func (f *factory) foods(p *models.FoodPartner, n int) ([]*models.Food, error) {
	out := make([]*models.Food, 0, n)
	for i := 0; i < n; i++ {
		food := &models.Food{
			Name:          gofakeit.Dessert(),
			Description:   gofakeit.Sentence(12),
			Video:         sampleVideos[f.rng.Intn(len(sampleVideos))],
			FoodPartnerID: p.ID,
			CreatedAt:     time.Now().Add(-time.Duration(f.rng.Intn(30*24)) * time.Hour),
		}
		if err := f.db.Create(food).Error; err != nil {
			return nil, fmt.Errorf("create food: %w", err)
		}
		out = append(out, food)
	}
	return out, nil
}

func (f *factory) comments(food *models.Food, users []*models.User, n int) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	created := 0
	for i := 0; i < n; i++ {
		author := users[f.rng.Intn(len(users))]
		c := &models.Comment{
			Text:       gofakeit.Sentence(f.rng.Intn(10) + 3),
			FoodID:     food.ID,
			AuthorID:   author.ID,
			AuthorType: models.ActorUser,
			IsPinned:   f.chance(f.opts.PinRatio),
		}
		if f.chance(0.3) {
			c.Reply = &models.CommentReply{
				Text:      "Thanks, " + gofakeit.FirstName() + "! " + gofakeit.Sentence(5),
				AuthorID:  food.FoodPartnerID,
				CreatedAt: time.Now().UTC(),
			}
		}
		if err := f.db.Create(c).Error; err != nil {
			return created, fmt.Errorf("create comment: %w", err)
		}
		created++
	}
	return created, nil
}

func (f *factory) engagement(food *models.Food, users []*models.User) (likes, saves int, err error) {
	for _, u := range users {
		if f.chance(f.opts.LikeRatio) {
			if err := f.db.Create(&models.Like{UserID: u.ID, FoodID: food.ID}).Error; err != nil {
				return likes, saves, fmt.Errorf("create like: %w", err)
			}
			likes++
		}
		if f.chance(f.opts.SaveRatio) {
			if err := f.db.Create(&models.Save{UserID: u.ID, FoodID: food.ID}).Error; err != nil {
				return likes, saves, fmt.Errorf("create save: %w", err)
			}
			saves++
		}
	}
	return likes, saves, nil
}

func (f *factory) chance(ratio float64) bool {
	return f.rng.Float64() < ratio
}
