package api

// reportSchema validates citizen report submissions before they reach the
// database. Coordinate bounds are WGS84.
const reportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "report",
  "type": "object",
  "required": ["title", "problem_type", "district", "longitude", "latitude"],
  "properties": {
    "title": {
      "type": "string",
      "minLength": 3,
      "maxLength": 200
    },
    "description": {
      "type": "string",
      "maxLength": 2000
    },
    "problem_type": {
      "type": "string",
      "minLength": 2,
      "maxLength": 100
    },
    "district": {
      "type": "string",
      "minLength": 2,
      "maxLength": 100
    },
    "longitude": {
      "type": "number",
      "minimum": -180,
      "maximum": 180
    },
    "latitude": {
      "type": "number",
      "minimum": -90,
      "maximum": 90
    }
  },
  "additionalProperties": false
}`
