package auth

import "github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"

type landingData struct {
	views.BaseData
}

type loginData struct {
	views.BaseData
	Email string
	Error string
}

type registerData struct {
	views.BaseData
	Name         string
	Email        string
	Organization string
	Error        string
}
