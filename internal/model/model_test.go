package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/sakif/recipe-box/internal/apperror"
)

// fakeHasher "hashes" by prefixing, which is enough to exercise the User
// methods without pulling bcrypt into model tests.
type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("empty")
	}
	return "hashed:" + plaintext, nil
}

func (fakeHasher) Matches(hash, plaintext string) bool {
	return hash == "hashed:"+plaintext
}

func strPtr(s string) *string { return &s }

func validInstructions() string {
	return strings.Repeat("x", MinInstructionsLength)
}

// =========================================================================
// VALIDATION
// =========================================================================

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"plain username", "chef1", false},
		{"empty", "", true},
		{"whitespace only", "   \t", true},
		{"padded", "  chef  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&User{Username: tt.username}).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, apperror.ErrValidation) {
					t.Errorf("error = %v, want ErrValidation", err)
				}
				if err.Error() != "username required" {
					t.Errorf("message = %q, want %q", err.Error(), "username required")
				}
			}
		})
	}
}

func TestRecipeValidate(t *testing.T) {
	tests := []struct {
		name         string
		recipe       Recipe
		wantMessages []string
	}{
		{
			name:   "valid",
			recipe: Recipe{Title: "Toast", Instructions: validInstructions(), UserID: 1},
		},
		{
			name:         "blank title",
			recipe:       Recipe{Title: "  ", Instructions: validInstructions()},
			wantMessages: []string{"title required"},
		},
		{
			name:         "short instructions",
			recipe:       Recipe{Title: "Toast", Instructions: "idk lol"},
			wantMessages: []string{"instructions too short"},
		},
		{
			name: "padding does not count toward the length",
			recipe: Recipe{
				Title:        "Toast",
				Instructions: "   " + strings.Repeat("x", MinInstructionsLength-1) + "   ",
			},
			wantMessages: []string{"instructions too short"},
		},
		{
			name:         "empty recipe reports both",
			recipe:       Recipe{},
			wantMessages: []string{"title required", "instructions too short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.recipe.Validate()
			if tt.wantMessages == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Validate() error = %v, want *apperror.AppError", err)
			}
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
			if got := appErr.Messages(); !reflect.DeepEqual(got, tt.wantMessages) {
				t.Errorf("Messages() = %v, want %v", got, tt.wantMessages)
			}
		})
	}
}

// =========================================================================
// PASSWORD
// =========================================================================

func TestUser_SetPasswordAndAuthenticate(t *testing.T) {
	u := &User{Username: "chef1"}

	if u.HasPassword() {
		t.Fatal("new user should not have a password")
	}
	if u.Authenticate(fakeHasher{}, "") {
		t.Fatal("user without a hash must never authenticate")
	}

	if err := u.SetPassword(fakeHasher{}, "pw123456"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if !u.HasPassword() {
		t.Fatal("HasPassword() = false after SetPassword")
	}
	if !u.Authenticate(fakeHasher{}, "pw123456") {
		t.Error("Authenticate() = false for the right password")
	}
	if u.Authenticate(fakeHasher{}, "nope") {
		t.Error("Authenticate() = true for the wrong password")
	}
}

func TestUser_SetPasswordPropagatesHasherError(t *testing.T) {
	u := &User{Username: "chef1"}
	if err := u.SetPassword(fakeHasher{}, ""); err == nil {
		t.Fatal("SetPassword(\"\") should fail")
	}
	if u.HasPassword() {
		t.Error("failed SetPassword must not leave a hash behind")
	}
}

func TestUser_PasswordPanics(t *testing.T) {
	u := &User{Username: "chef1"}
	_ = u.SetPassword(fakeHasher{}, "pw123456")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Password() should panic")
		}
		if err, ok := r.(error); !ok || !errors.Is(err, ErrPasswordUnreadable) {
			t.Errorf("panic value = %v, want ErrPasswordUnreadable", r)
		}
	}()
	_ = u.Password()
}

func TestPasswordHash_NeverPrintsOrEncodes(t *testing.T) {
	h := PasswordHash("$2a$04$secret")

	if s := fmt.Sprintf("%v %s %#v", h, h, h); strings.Contains(s, "secret") {
		t.Errorf("formatted hash leaked: %q", s)
	}
	if _, err := json.Marshal(h); !errors.Is(err, ErrPasswordUnreadable) {
		t.Errorf("json.Marshal(hash) error = %v, want ErrPasswordUnreadable", err)
	}
}

func TestPasswordHash_ValueAndScan(t *testing.T) {
	var empty PasswordHash
	if v, err := empty.Value(); err != nil || v != nil {
		t.Errorf("empty Value() = %v, %v; want nil, nil", v, err)
	}

	var h PasswordHash
	if err := h.Scan([]byte("abc")); err != nil || h != "abc" {
		t.Errorf("Scan([]byte) = %q, %v", string(h), err)
	}
	if err := h.Scan(nil); err != nil || h != "" {
		t.Errorf("Scan(nil) = %q, %v", string(h), err)
	}
	if err := h.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}

// =========================================================================
// SERIALIZATION
// =========================================================================

func TestUserJSON_HasNoPasswordField(t *testing.T) {
	u := &User{ID: 1, Username: "chef1"}
	_ = u.SetPassword(fakeHasher{}, "pw123456")

	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("json.Marshal(user) error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]any{"id": float64(1), "username": "chef1", "image_url": nil, "bio": nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("user JSON = %v, want %v", got, want)
	}
	if strings.Contains(string(raw), "hashed:") {
		t.Errorf("user JSON leaked the hash: %s", raw)
	}
}

func TestRecipePayload_EmbedsOwnerOneLevel(t *testing.T) {
	owner := &User{ID: 7, Username: "chefmaster", Bio: strPtr("cooks")}
	r := Recipe{
		ID:                3,
		Title:             "Chef's Secret",
		Instructions:      validInstructions(),
		MinutesToComplete: 75,
		UserID:            owner.ID,
		User:              owner,
	}

	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal(recipe) error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	user, ok := got["user"].(map[string]any)
	if !ok {
		t.Fatalf("user field = %v, want an object", got["user"])
	}
	if user["id"] != float64(7) {
		t.Errorf("user.id = %v, want 7", user["id"])
	}
	if _, ok := user["recipes"]; ok {
		t.Error("embedded user must not carry a recipes field")
	}
	if got["minutes_to_complete"] != float64(75) {
		t.Errorf("minutes_to_complete = %v, want 75", got["minutes_to_complete"])
	}
}

func TestRecipePayload_NilOwner(t *testing.T) {
	p := (&Recipe{ID: 1, Title: "Orphan"}).Payload()
	if p.User != nil {
		t.Errorf("Payload().User = %v, want nil", p.User)
	}

	raw, _ := json.Marshal(p)
	if !strings.Contains(string(raw), `"user":null`) {
		t.Errorf("recipe JSON = %s, want user:null", raw)
	}
}

func TestRecipePayloads_EmptyIsNotNull(t *testing.T) {
	raw, _ := json.Marshal(RecipePayloads(nil))
	if string(raw) != "[]" {
		t.Errorf("RecipePayloads(nil) JSON = %s, want []", raw)
	}
}
