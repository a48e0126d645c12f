package validators

import "go.mongodb.org/mongo-driver/bson"

var chargeSchema = bson.M{
	"bsonType": "object",
	"required": []string{"id", "amount"},
	"properties": bson.M{
		"id":       bson.M{"bsonType": "string", "minLength": 1},
		"amount":   bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
		"currency": bson.M{"bsonType": "string"},
	},
}

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"renter",
			"owner",
			"booking",
			"customer_id",
			"source_id",
			"amount",
			"currency",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":     bson.M{"bsonType": "objectId"},
			"renter":  bson.M{"bsonType": "objectId"},
			"owner":   bson.M{"bsonType": "objectId"},
			"booking": bson.M{"bsonType": "objectId"},

			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"source_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			// minor units
			"amount": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"charge": chargeSchema,

			"refund": bson.M{
				"bsonType": "object",
				"required": []string{"id", "charge_id"},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"PENDING",
					"DECLINED",
					"PAID",
					"REFUNDED",
				},
			},

			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
