package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedTestData resets the database and populates it with demo users,
// decisions, matches and messages.
//
// Behavior:
//  1. Clears all tables.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords.
//  3. Generates decisions with ~70% likes; every 3rd pair becomes a
//     guaranteed mutual like, producing a "liked" match with a short
//     conversation.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"last_reads", "messages", "match_users", "matches", "decisions", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range []string{"messages", "matches", "decisions", "users"} {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('messages', 'matches', 'decisions', 'users')")
	}

	log.Println("Cleared existing data")

	// --- Seed Users (10 male, 10 female) ---
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	locations := []string{"London", "Berlin", "Lisbon"}
	statuses := []string{"single", "divorced"}

	for i := 1; i <= 20; i++ {
		gender := "male"
		if i > 10 {
			gender = "female"
		}

		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Gender:       gender,
			Location:     locations[i%len(locations)],
			Age:          21 + r.Intn(20),
			Status:       statuses[i%len(statuses)],
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	opening := []string{"hey!", "hi there", "love your profile", "how's your week going?"}

	counter := 0
	for actorID := uint64(1); actorID <= 20; actorID++ {
		for j := 0; j < 8; j++ {
			recipientID := uint64(r.Intn(20) + 1)
			if actorID == recipientID {
				continue
			}

			var actor, recipient User
			if err := db.First(&actor, actorID).Error; err != nil {
				continue
			}
			if err := db.First(&recipient, recipientID).Error; err != nil {
				continue
			}
			if actor.Gender == recipient.Gender {
				continue
			}

			// skip pairs that already decided either way
			var existing int64
			db.Model(&Decision{}).
				Where("(who_id = ? AND whom_id = ?) OR (who_id = ? AND whom_id = ?)",
					actorID, recipientID, recipientID, actorID).
				Count(&existing)
			if existing > 0 {
				continue
			}

			status := DecisionDisliked
			if r.Intn(100) < 70 {
				status = DecisionLiked
			}

			if err := db.Create(&Decision{WhoID: actorID, WhomID: recipientID, Status: status}).Error; err != nil {
				return fmt.Errorf("failed to seed decision: %w", err)
			}

			mutual := status == DecisionLiked && counter%3 == 0
			if mutual {
				if err := db.Create(&Decision{WhoID: recipientID, WhomID: actorID, Status: DecisionLiked}).Error; err != nil {
					return fmt.Errorf("failed to seed decision: %w", err)
				}
			}

			if mutual || status == DecisionDisliked {
				matchStatus := MatchDisliked
				initiator := actorID
				if mutual {
					matchStatus = MatchLiked
					initiator = recipientID // the liking-back party completes the match
				}
				match := Match{Status: matchStatus, InitiatorID: initiator, Users: []User{actor, recipient}}
				if err := db.Create(&match).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
				if mutual {
					for k, text := range opening[:1+r.Intn(len(opening))] {
						author := actorID
						if k%2 == 1 {
							author = recipientID
						}
						if err := db.Create(&Message{MatchID: match.ID, UserID: author, Text: text}).Error; err != nil {
							return fmt.Errorf("failed to seed message: %w", err)
						}
					}
				}
			}

			counter++
		}
	}

	return nil
}
