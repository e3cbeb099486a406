package models

// Certificate represents an issued course completion certificate
type Certificate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Course  string `json:"course"`
	Date    string `json:"date"`
	Revoked bool   `json:"revoked"`
}
