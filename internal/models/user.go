package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rôles
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleSeller    = "seller"
)

// Paliers de fidélité
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

const (
	OTPTTL            = 10 * time.Minute
	ResetTokenTTL     = 10 * time.Minute
	MaxLoginAttempts  = 5
	LoginLockDuration = 2 * time.Hour
)

var validRoles = map[string]bool{RoleUser: true, RoleAdmin: true, RoleModerator: true, RoleSeller: true}

// IsValidRole indique si le rôle est connu.
func IsValidRole(role string) bool {
	return validRoles[role]
}

type Avatar struct {
	URL      string `json:"url" bson:"url"`
	PublicID string `json:"publicId,omitempty" bson:"publicId,omitempty"`
}

type EmailNotifications struct {
	OrderUpdates           bool `json:"orderUpdates" bson:"orderUpdates"`
	Promotions             bool `json:"promotions" bson:"promotions"`
	Newsletter             bool `json:"newsletter" bson:"newsletter"`
	ProductRecommendations bool `json:"productRecommendations" bson:"productRecommendations"`
	PriceAlerts            bool `json:"priceAlerts" bson:"priceAlerts"`
}

type Preferences struct {
	EmailNotifications EmailNotifications `json:"emailNotifications" bson:"emailNotifications"`
	Language           string             `json:"language" bson:"language"`
	Currency           string             `json:"currency" bson:"currency"`
	Theme              string             `json:"theme" bson:"theme"`
}

type Loyalty struct {
	Points     int       `json:"points" bson:"points"`
	Tier       string    `json:"tier" bson:"tier"`
	TotalSpent float64   `json:"totalSpent" bson:"totalSpent"`
	JoinDate   time.Time `json:"joinDate" bson:"joinDate"`
}

type SocialAccount struct {
	ID    string `json:"id,omitempty" bson:"id,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

type SocialLogins struct {
	Google   SocialAccount `json:"google" bson:"google"`
	Facebook SocialAccount `json:"facebook" bson:"facebook"`
	Apple    SocialAccount `json:"apple" bson:"apple"`
}

// Account retourne le compte social lié pour un provider goth ("google", "facebook", "apple").
func (s *SocialLogins) Account(provider string) *SocialAccount {
	switch provider {
	case "google":
		return &s.Google
	case "facebook":
		return &s.Facebook
	case "apple":
		return &s.Apple
	}
	return nil
}

type User struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name     string             `json:"name" bson:"name"`
	Email    string             `json:"email" bson:"email"`
	Password string             `json:"-" bson:"password"`
	Role     string             `json:"role" bson:"role"`
	Avatar   Avatar             `json:"avatar" bson:"avatar"`
	Phone    string             `json:"phone,omitempty" bson:"phone,omitempty"`

	DateOfBirth *time.Time `json:"dateOfBirth,omitempty" bson:"dateOfBirth,omitempty"`
	Gender      string     `json:"gender,omitempty" bson:"gender,omitempty"`
	Addresses   []Address  `json:"addresses" bson:"addresses"`

	IsActive        bool `json:"isActive" bson:"isActive"`
	IsEmailVerified bool `json:"isEmailVerified" bson:"isEmailVerified"`
	IsPhoneVerified bool `json:"isPhoneVerified" bson:"isPhoneVerified"`

	PasswordResetToken   string     `json:"-" bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time `json:"-" bson:"passwordResetExpires,omitempty"`

	OTP           string     `json:"-" bson:"otp,omitempty"`
	OTPExpires    *time.Time `json:"-" bson:"otpExpires,omitempty"`
	IsOTPVerified bool       `json:"isOtpVerified" bson:"isOtpVerified"`

	TwoFactorEnabled bool `json:"twoFactorEnabled" bson:"twoFactorEnabled"`

	LastLogin     *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	LoginAttempts int        `json:"-" bson:"loginAttempts"`
	LockUntil     *time.Time `json:"-" bson:"lockUntil,omitempty"`

	Preferences  Preferences  `json:"preferences" bson:"preferences"`
	Loyalty      Loyalty      `json:"loyalty" bson:"loyalty"`
	SocialLogins SocialLogins `json:"socialLogins" bson:"socialLogins"`

	TotalOrders       int        `json:"totalOrders" bson:"totalOrders"`
	TotalSpent        float64    `json:"totalSpent" bson:"totalSpent"`
	AverageOrderValue float64    `json:"averageOrderValue" bson:"averageOrderValue"`
	LastOrderDate     *time.Time `json:"lastOrderDate,omitempty" bson:"lastOrderDate,omitempty"`

	ReferralCode  string              `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ReferredBy    *primitive.ObjectID `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	ReferralCount int                 `json:"referralCount" bson:"referralCount"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewUser construit un utilisateur avec les valeurs par défaut du schéma.
func NewUser(name, email, role string) *User {
	if role == "" {
		role = RoleUser
	}
	now := time.Now()
	u := &User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      role,
		Addresses: []Address{},
		IsActive:  true,
		Preferences: Preferences{
			EmailNotifications: EmailNotifications{
				OrderUpdates:           true,
				Promotions:             true,
				ProductRecommendations: true,
			},
			Language: "en",
			Currency: "USD",
			Theme:    "light",
		},
		Loyalty:   Loyalty{Tier: TierBronze, JoinDate: now},
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.ReferralCode = u.GenerateReferralCode()
	return u
}

// HashToken retourne l'empreinte sha256 (hex) stockée pour les OTP et jetons de reset.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateOTP crée un code à 6 chiffres, en stocke l'empreinte et retourne le code en clair.
func (u *User) GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	otp := fmt.Sprintf("%06d", n.Int64()+100000)

	expires := time.Now().Add(OTPTTL)
	u.OTP = HashToken(otp)
	u.OTPExpires = &expires
	u.IsOTPVerified = false
	return otp, nil
}

// VerifyOTP compare le code fourni à l'empreinte stockée.
func (u *User) VerifyOTP(candidate string) bool {
	if u.OTP == "" || u.OTPExpires == nil {
		return false
	}
	if u.OTPExpires.Before(time.Now()) {
		return false
	}
	return u.OTP == HashToken(candidate)
}

// ClearOTP efface le code après vérification.
func (u *User) ClearOTP() {
	u.OTP = ""
	u.OTPExpires = nil
}

// GeneratePasswordResetToken crée un jeton de 32 octets, en stocke l'empreinte et retourne le jeton en clair.
func (u *User) GeneratePasswordResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	expires := time.Now().Add(ResetTokenTTL)
	u.PasswordResetToken = HashToken(token)
	u.PasswordResetExpires = &expires
	return token, nil
}

func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}

func (u *User) IsLocked() bool {
	return u.LockUntil != nil && u.LockUntil.After(time.Now())
}

// RegisterFailedLogin compte un échec de connexion. Au 5e échec le compte est verrouillé 2h.
// Un verrou expiré repart à 1 tentative.
func (u *User) RegisterFailedLogin() {
	now := time.Now()
	if u.LockUntil != nil && u.LockUntil.Before(now) {
		u.LockUntil = nil
		u.LoginAttempts = 1
		return
	}

	u.LoginAttempts++
	if u.LoginAttempts >= MaxLoginAttempts && !u.IsLocked() {
		lock := now.Add(LoginLockDuration)
		u.LockUntil = &lock
	}
}

func (u *User) ResetLoginAttempts() {
	u.LoginAttempts = 0
	u.LockUntil = nil
}

// DefaultAddress retourne l'adresse par défaut, ou la première.
func (u *User) DefaultAddress() *Address {
	for i := range u.Addresses {
		if u.Addresses[i].IsDefault {
			return &u.Addresses[i]
		}
	}
	if len(u.Addresses) > 0 {
		return &u.Addresses[0]
	}
	return nil
}

// AddAddress ajoute une adresse. La première adresse devient l'adresse par défaut.
func (u *User) AddAddress(addr Address) *Address {
	if addr.ID.IsZero() {
		addr.ID = primitive.NewObjectID()
	}
	if addr.Type == "" {
		addr.Type = AddressHome
	}
	if len(u.Addresses) == 0 || addr.IsDefault {
		u.clearDefaultAddress()
		addr.IsDefault = true
	}
	u.Addresses = append(u.Addresses, addr)
	return &u.Addresses[len(u.Addresses)-1]
}

// UpdateAddress applique les champs non vides de update. nil si l'adresse n'existe pas.
func (u *User) UpdateAddress(id primitive.ObjectID, update Address) *Address {
	idx := u.addressIndex(id)
	if idx < 0 {
		return nil
	}
	if update.IsDefault {
		u.clearDefaultAddress()
	}

	addr := &u.Addresses[idx]
	addr.merge(update)
	if update.IsDefault {
		addr.IsDefault = true
	}
	return addr
}

// SetDefaultAddress marque l'adresse comme adresse par défaut.
func (u *User) SetDefaultAddress(id primitive.ObjectID) bool {
	idx := u.addressIndex(id)
	if idx < 0 {
		return false
	}
	u.clearDefaultAddress()
	u.Addresses[idx].IsDefault = true
	return true
}

// RemoveAddress supprime l'adresse. Si c'était l'adresse par défaut, la première restante la remplace.
func (u *User) RemoveAddress(id primitive.ObjectID) bool {
	idx := u.addressIndex(id)
	if idx < 0 {
		return false
	}
	wasDefault := u.Addresses[idx].IsDefault
	u.Addresses = append(u.Addresses[:idx], u.Addresses[idx+1:]...)
	if wasDefault && len(u.Addresses) > 0 {
		u.Addresses[0].IsDefault = true
	}
	return true
}

func (u *User) addressIndex(id primitive.ObjectID) int {
	for i := range u.Addresses {
		if u.Addresses[i].ID == id {
			return i
		}
	}
	return -1
}

func (u *User) clearDefaultAddress() {
	for i := range u.Addresses {
		u.Addresses[i].IsDefault = false
	}
}

// UpdateOrderStats met à jour les statistiques après une commande payée.
func (u *User) UpdateOrderStats(orderValue float64) {
	now := time.Now()
	u.TotalOrders++
	u.TotalSpent += orderValue
	u.AverageOrderValue = u.TotalSpent / float64(u.TotalOrders)
	u.LastOrderDate = &now

	u.Loyalty.Points += int(math.Floor(orderValue))
	u.Loyalty.TotalSpent += orderValue
	u.UpdateLoyaltyTier()
}

func (u *User) UpdateLoyaltyTier() {
	switch spent := u.Loyalty.TotalSpent; {
	case spent >= 10000:
		u.Loyalty.Tier = TierPlatinum
	case spent >= 5000:
		u.Loyalty.Tier = TierGold
	case spent >= 1000:
		u.Loyalty.Tier = TierSilver
	default:
		u.Loyalty.Tier = TierBronze
	}
}

// RedeemLoyaltyPoints retire des points si le solde le permet.
func (u *User) RedeemLoyaltyPoints(points int) bool {
	if u.Loyalty.Points < points {
		return false
	}
	u.Loyalty.Points -= points
	return true
}

const referralAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateReferralCode: 3 premières lettres du nom + 6 caractères aléatoires.
func (u *User) GenerateReferralCode() string {
	prefix := []rune(strings.ToUpper(strings.ReplaceAll(u.Name, " ", "")))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	var b strings.Builder
	b.WriteString(string(prefix))
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralAlphabet))))
		if err != nil {
			b.WriteByte('X')
			continue
		}
		b.WriteByte(referralAlphabet[n.Int64()])
	}
	return b.String()
}

// Summary est la vue publique minimale renvoyée par les endpoints d'auth.
func (u *User) Summary() map[string]interface{} {
	return map[string]interface{}{
		"_id":   u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}

// SummaryWithAvatar ajoute l'avatar (réponse de login).
func (u *User) SummaryWithAvatar() map[string]interface{} {
	s := u.Summary()
	s["avatar"] = u.Avatar
	return s
}
