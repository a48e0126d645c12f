package validators

import "go.mongodb.org/mongo-driver/bson"

var PetValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"species",
			"city",
			"daily_rental_rate",
			"owner",
			"status",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"species": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"city": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"daily_rental_rate": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"location": bson.M{
				"bsonType": "object",
				"required": []string{"type", "coordinates"},
				"properties": bson.M{
					"type": bson.M{"enum": []string{"Point"}},
					"coordinates": bson.M{
						"bsonType": "array",
						"minItems": 2,
						"maxItems": 2,
						"items":    bson.M{"bsonType": "double"},
					},
				},
			},

			"owner": bson.M{"bsonType": "objectId"},

			"bookings": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "objectId"},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"ACTIVE",
					"HIDDEN",
					"ARCHIVED",
				},
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
		},
	},
}
