package models

import "slices"

// Project mirrors the backend project document.
type Project struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ExpectedEndDate string   `json:"expected_end_date"`
	MinPeople       int      `json:"min_people"`
	MaxPeople       int      `json:"max_people"`
	Users           []string `json:"users"`
	ManagerID       string   `json:"manager_id"`
	Tasks           []string `json:"tasks,omitempty"`
}

func (p *Project) HasMember(userID string) bool {
	return slices.Contains(p.Users, userID)
}

// FreeSlots is how many more members fit before MaxPeople is reached.
func (p *Project) FreeSlots() int {
	free := p.MaxPeople - len(p.Users)
	if free < 0 {
		return 0
	}
	return free
}

// ProjectTitleCheck is the body of POST /projects/title/:managerId.
type ProjectTitleCheck struct {
	Title string `json:"title"`
}

// ProjectUsersRequest is the body of the add-users / remove-users endpoints.
type ProjectUsersRequest struct {
	UserIDs []string `json:"userIds"`
}

// ProjectActive is returned by GET /projects/isActive/:id.
type ProjectActive struct {
	Result bool `json:"result"`
}

// Backend replies to the title check.
const (
	TitleExists   = "Project exists"
	TitleNotFound = "Project not found"
)
