package domain

// DefaultTag is used when a build request does not name a tag.
const DefaultTag = "latest"

// BuildRequest is the body of a POST /build call.
type BuildRequest struct {
	GitRepo          string `json:"git_repo"`
	DockerImage      string `json:"docker_image"`
	DockerTag        string `json:"docker_tag,omitempty"`
	GitBranch        string `json:"git_branch,omitempty"`
	GitDirectory     string `json:"git_directory,omitempty"`
	RegistryUser     string `json:"registry_user,omitempty"`
	RegistryPassword string `json:"registry_password,omitempty"`
}

// Tag returns the requested tag, falling back to DefaultTag.
func (r BuildRequest) Tag() string {
	if r.DockerTag == "" {
		return DefaultTag
	}
	return r.DockerTag
}

// ImageRef is the name:tag reference handed to the daemon.
func (r BuildRequest) ImageRef() string {
	return r.DockerImage + ":" + r.Tag()
}

// RegistryAuth returns push credentials, or nil unless both user and
// password were supplied.
func (r BuildRequest) RegistryAuth() *RegistryAuth {
	if r.RegistryUser == "" || r.RegistryPassword == "" {
		return nil
	}
	return &RegistryAuth{
		Username: r.RegistryUser,
		Password: r.RegistryPassword,
	}
}

// RegistryAuth holds credentials used to log in before a push.
type RegistryAuth struct {
	Username string
	Password string
}
