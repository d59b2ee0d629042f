package mongodb

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// NewObjectID generates a new MongoDB ObjectID as a string
func NewObjectID() string {
	return bson.NewObjectID().Hex()
}

// duplicateIndex returns the name of the unique index a write violated, or
// "" if err is not a duplicate-key error.
func duplicateIndex(err error, candidates ...string) string {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return ""
	}

	var messages []string
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			messages = append(messages, e.Message)
		}
	}
	if len(messages) == 0 {
		messages = append(messages, err.Error())
	}

	for _, msg := range messages {
		for _, name := range candidates {
			if strings.Contains(msg, name) {
				return name
			}
		}
	}
	return "unknown"
}
