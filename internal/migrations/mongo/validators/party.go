package validators

import "go.mongodb.org/mongo-driver/bson"

var subjectSchema = bson.M{
	"bsonType":  "string",
	"minLength": 1,
	"maxLength": 255,
}

var OwnerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"subject", "fullname"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "objectId"},
			"subject":  subjectSchema,
			"fullname": bson.M{"bsonType": "string"},
			"email":    bson.M{"bsonType": "string"},
		},
	},
}

var RenterValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"subject", "username", "email"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "objectId"},
			"subject":  subjectSchema,
			"username": bson.M{"bsonType": "string", "minLength": 1},
			"fullname": bson.M{"bsonType": "string"},
			"email":    bson.M{"bsonType": "string"},

			"payment_customer_id": bson.M{"bsonType": "string"},

			// minor units
			"revenue": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"bookings": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "objectId"},
			},
		},
	},
}
