package validators

import "go.mongodb.org/mongo-driver/bson"

var timeOfDay = bson.M{"bsonType": "string", "pattern": `^([01][0-9]|2[0-3]):[0-5][0-9]$`}

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "requester", "space", "slot", "event_category", "state", "created_at"},
		"properties": bson.M{
			"_id": bson.M{"bsonType": "string", "minLength": 1},
			"requester": bson.M{
				"bsonType": "object",
				"required": []string{"id", "name", "role"},
				"properties": bson.M{
					"id":            bson.M{"bsonType": "string", "minLength": 1},
					"name":          bson.M{"bsonType": "string"},
					"role":          bson.M{"enum": []string{"student", "faculty", "staff", "area_responsible"}},
					"academic_unit": bson.M{"bsonType": "string"},
				},
			},
			"space": bson.M{
				"bsonType": "object",
				"required": []string{"name", "type", "capacity"},
				"properties": bson.M{
					"name":     bson.M{"bsonType": "string", "minLength": 1},
					"type":     bson.M{"enum": []string{"classroom", "laboratory", "meeting_room", "auditorium"}},
					"capacity": bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
				},
			},
			"slot": bson.M{
				"bsonType": "object",
				"required": []string{"date", "start", "end"},
				"properties": bson.M{
					"date":  bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
					"start": timeOfDay,
					"end":   timeOfDay,
				},
			},
			"event_category": bson.M{"enum": []string{"class", "conference", "meeting", "practice", "other"}},
			"description":    bson.M{"bsonType": "string", "maxLength": 500},
			"state":          bson.M{"enum": []string{"pending", "approved", "rejected", "cancelled", "completed"}},
			"created_at":     bson.M{"bsonType": "string"},
			"updated_at":     bson.M{"bsonType": "string"},
			"approver": bson.M{
				"bsonType": []string{"object", "null"},
				"properties": bson.M{
					"id":               bson.M{"bsonType": "string"},
					"name":             bson.M{"bsonType": "string"},
					"academic_unit":    bson.M{"bsonType": "string"},
					"authorized_areas": bson.M{"bsonType": []string{"array", "null"}, "items": bson.M{"bsonType": "string"}},
				},
			},
			"rejection_reason": bson.M{"bsonType": []string{"string", "null"}},
		},
	},
}
