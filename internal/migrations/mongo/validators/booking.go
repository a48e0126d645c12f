package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"start_at",
			"end_at",
			"total_price",
			"days",
			"renter",
			"owner",
			"pet",
			"payment",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"start_at": bson.M{
				"bsonType": "date",
			},

			"end_at": bson.M{
				"bsonType": "date",
			},

			"total_price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"days": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  365,
			},

			"renter":  bson.M{"bsonType": "objectId"},
			"owner":   bson.M{"bsonType": "objectId"},
			"pet":     bson.M{"bsonType": "objectId"},
			"payment": bson.M{"bsonType": "objectId"},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"PENDING",
					"ACTIVE",
					"CANCELLED",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
