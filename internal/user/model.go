package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:64" json:"name"`
	Phone        string    `gorm:"uniqueIndex;size:16;not null" json:"phone"`
	Email        string    `gorm:"size:128" json:"email,omitempty"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Age          int       `json:"age"`
	Gender       Gender    `gorm:"type:varchar(10)" json:"gender"`
	HeightCm     float64   `json:"height_cm"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}

// NormalizePhone strips spaces, dashes and a leading country code so the
// same number always maps to the same account.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	return digits
}

// ValidPhone reports whether the number is a 10-digit mobile number
// starting with 6-9.
func ValidPhone(phone string) bool {
	digits := NormalizePhone(phone)
	if len(digits) != 10 {
		return false
	}
	return digits[0] >= '6' && digits[0] <= '9'
}

// BMR computes the basal metabolic rate via Mifflin-St Jeor from the
// user's profile and a current weight. Returns 0 when the profile is
// incomplete, which callers treat as "no senior floor available".
func (u *User) BMR(weightKg float64) float64 {
	if u.Age <= 0 || u.HeightCm <= 0 || weightKg <= 0 {
		return 0
	}
	bmr := 10*weightKg + 6.25*u.HeightCm - 5*float64(u.Age)
	if u.Gender == GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return bmr
}
