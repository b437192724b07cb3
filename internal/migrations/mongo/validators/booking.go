package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_code",
			"booking_type",
			"services",
			"booking_date",
			"booking_time",
			"status",
			"total_amount",
			"final_amount",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_code": bson.M{
				"bsonType":  "string",
				"minLength": 14,
				"maxLength": 14,
			},

			"booking_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"guest",
					"member",
				},
			},

			"customer": bson.M{
				"bsonType": "string",
			},

			"guest_info": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"full_name": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 100,
					},
					"phone": bson.M{
						"bsonType": "string",
					},
					"email": bson.M{
						"bsonType": "string",
					},
				},
			},

			"services": bson.M{
				"bsonType": "array",
				"minItems": 1,
			},

			"booking_date": bson.M{
				"bsonType": "date",
			},

			"booking_time": bson.M{
				"bsonType": "string",
				"pattern":  "^(?:[01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"checked_in",
					"in_progress",
					"completed",
					"cancelled",
					"no_show",
					"refunded",
				},
			},

			"total_amount": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"final_amount": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"unpaid",
					"deposit",
					"paid",
					"partially_refunded",
					"refunded",
				},
			},

			"otp_attempts": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"points_awarded": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
