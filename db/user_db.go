package db

import (
	"context"

	"bizpilot/pkg/logger"
)

// UsersDB is the credential store. Every operation loads the whole
// collection; Create runs its duplicate check, append and save under one lock.
type UsersDB struct {
	c *collection[User]
}

func NewUsersDB(store Store[User], log *logger.Logger) *UsersDB {
	return &UsersDB{c: newCollection("users", store, log)}
}

// OpenUsersDB opens the file-backed credential store at path
func OpenUsersDB(path string, log *logger.Logger) *UsersDB {
	return NewUsersDB(NewFileStore[User](path), log)
}

// Create appends user unless a user with the same email exists
func (udb *UsersDB) Create(ctx context.Context, user User) error {
	udb.c.mu.Lock()
	defer udb.c.mu.Unlock()

	users, err := udb.c.load(ctx)
	if err != nil {
		return err
	}

	if findUser(users, user.Email) != nil {
		return ErrUserExists
	}

	return udb.c.save(ctx, append(users, user))
}

func (udb *UsersDB) FindUserByEmail(ctx context.Context, email string) (User, error) {
	users, err := udb.c.snapshot(ctx)
	if err != nil {
		return User{}, err
	}

	if u := findUser(users, email); u != nil {
		return *u, nil
	}
	return User{}, ErrUserNotFound
}

func (udb *UsersDB) All(ctx context.Context) ([]User, error) {
	return udb.c.snapshot(ctx)
}

// Check reports whether the credential file can be read, without touching it
func (udb *UsersDB) Check(ctx context.Context) error {
	return udb.c.check(ctx)
}

func findUser(users []User, email string) *User {
	for i := range users {
		if users[i].Email == email {
			return &users[i]
		}
	}
	return nil
}
