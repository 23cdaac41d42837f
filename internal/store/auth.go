package store

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func findByEmail(users []models.User, email string) int {
	email = normalizeEmail(email)
	for i := range users {
		if normalizeEmail(users[i].Email) == email {
			return i
		}
	}
	return -1
}

// Login makes the user with this email the current user. The password must
// match the stored one. Switching to a different identity empties the cart.
func (s *Store) Login(ctx context.Context, email, password string) (models.User, error) {
	var out models.User
	err := s.mutate(ctx, "login", func(st *repo.State) (Change, error) {
		i := findByEmail(st.Users, email)
		if i < 0 {
			return Change{}, ErrInvalidCredentials
		}
		user := st.Users[i]
		if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
			return Change{}, ErrInvalidCredentials
		}

		keys := []repo.Key{repo.KeyCurrentUser}
		if st.CurrentUser != nil && st.CurrentUser.ID != user.ID && len(st.CartItems) > 0 {
			st.CartItems = nil
			keys = append(keys, repo.KeyCartItems)
		}
		st.CurrentUser = &user
		out = user
		return Change{Kind: ChangeLogin, Keys: keys, At: s.now(), UserID: user.ID}, nil
	})
	return out, err
}

// Register adds a user to the directory and signs them in.
func (s *Store) Register(ctx context.Context, in models.NewUser) (models.User, error) {
	var out models.User
	err := s.mutate(ctx, "register", func(st *repo.State) (Change, error) {
		email := normalizeEmail(in.Email)
		username := strings.TrimSpace(in.Username)
		if email == "" || in.Password == "" || username == "" {
			return Change{}, fmt.Errorf("email, password and username are required: %w", ErrValidation)
		}
		if findByEmail(st.Users, email) >= 0 {
			return Change{}, ErrEmailTaken
		}

		id, err := s.freshID(func(id string) bool { return userIndex(st.Users, id) >= 0 })
		if err != nil {
			return Change{}, err
		}

		avatar := strings.TrimSpace(in.Avatar)
		if avatar == "" {
			avatar = models.DefaultAvatarURL
		}
		now := s.now()
		user := models.User{
			ID:       id,
			Email:    email,
			Password: in.Password,
			Username: username,
			FullName: strings.TrimSpace(in.FullName),
			Bio:      strings.TrimSpace(in.Bio),
			Location: strings.TrimSpace(in.Location),
			Avatar:   avatar,
			JoinDate: now,
		}

		keys := []repo.Key{repo.KeyUsers, repo.KeyCurrentUser}
		if len(st.CartItems) > 0 {
			st.CartItems = nil
			keys = append(keys, repo.KeyCartItems)
		}
		st.Users = append(st.Users, user)
		st.CurrentUser = &user
		out = user
		return Change{Kind: ChangeRegister, Keys: keys, At: now, UserID: id}, nil
	})
	return out, err
}

// Logout clears the current user and the cart. Catalog and history stay.
func (s *Store) Logout(ctx context.Context) error {
	return s.mutate(ctx, "logout", func(st *repo.State) (Change, error) {
		var userID string
		if st.CurrentUser != nil {
			userID = st.CurrentUser.ID
		}
		st.CurrentUser = nil
		st.CartItems = nil
		return Change{
			Kind:   ChangeLogout,
			Keys:   []repo.Key{repo.KeyCurrentUser, repo.KeyCartItems},
			At:     s.now(),
			UserID: userID,
		}, nil
	})
}

// UpdateProfile merges upd into the current user and its directory entry.
// A changed email must stay unique across the directory.
func (s *Store) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	var out models.User
	err := s.mutate(ctx, "update_profile", func(st *repo.State) (Change, error) {
		if st.CurrentUser == nil {
			return Change{}, ErrNotAuthenticated
		}
		current := *st.CurrentUser

		if upd.Email != nil {
			email := normalizeEmail(*upd.Email)
			if email == "" {
				return Change{}, fmt.Errorf("email must not be empty: %w", ErrValidation)
			}
			if i := findByEmail(st.Users, email); i >= 0 && st.Users[i].ID != current.ID {
				return Change{}, ErrEmailTaken
			}
			upd.Email = &email
		}
		if upd.Username != nil && strings.TrimSpace(*upd.Username) == "" {
			return Change{}, fmt.Errorf("username must not be empty: %w", ErrValidation)
		}
		if upd.Password != nil && *upd.Password == "" {
			return Change{}, fmt.Errorf("password must not be empty: %w", ErrValidation)
		}

		updated := upd.Apply(current)
		st.CurrentUser = &updated
		if i := userIndex(st.Users, current.ID); i >= 0 {
			st.Users[i] = updated
		}
		out = updated
		return Change{
			Kind:   ChangeProfileUpdated,
			Keys:   []repo.Key{repo.KeyCurrentUser, repo.KeyUsers},
			At:     s.now(),
			UserID: updated.ID,
		}, nil
	})
	return out, err
}
