package backend

import "context"

// Call records one invocation on the MockBackend, for ordering assertions.
type Call struct {
	Method string
	Args   []string
}

// MockBackend is a test double for ContainerBackend. Responses are configured
// through the struct fields; every invocation is appended to Calls.
type MockBackend struct {
	Calls []Call

	CreateResp    ContainerCreation
	CreateErr     error
	ResolveIDs    map[string]ImageID
	ResolveResp   ImageID
	ResolveErr    error
	StartErr      error
	StopRemoveErr error
	CopyErr       error
	CommitErr     error

	// RunningSeq is consumed one value per IsRunning call; once exhausted,
	// IsRunning keeps returning false.
	RunningSeq []bool
	runningIdx int
	RunningErr error

	WaitCode   int
	WaitErr    error
	StdoutResp string
	StdoutErr  error
	StderrResp string
	StderrErr  error
	LoginOK    bool
	LoginErr   error
	PushErr    error
	TagErr     error
	CloseErr   error
	Closed     int
}

func (m *MockBackend) record(method string, args ...string) {
	m.Calls = append(m.Calls, Call{Method: method, Args: args})
}

// CallNames returns the recorded method names in invocation order.
func (m *MockBackend) CallNames() []string {
	names := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		names[i] = c.Method
	}
	return names
}

func (m *MockBackend) CreateContainer(_ context.Context, imageID ImageID, _ CreateOptions) (ContainerCreation, error) {
	m.record("CreateContainer", string(imageID))
	return m.CreateResp, m.CreateErr
}

func (m *MockBackend) RepoTagToImageID(_ context.Context, repoTag string, mode PullMode) (ImageID, error) {
	m.record("RepoTagToImageID", repoTag, mode.String())
	if m.ResolveErr != nil {
		return "", m.ResolveErr
	}
	if id, ok := m.ResolveIDs[repoTag]; ok {
		return id, nil
	}
	return m.ResolveResp, nil
}

func (m *MockBackend) StartContainer(_ context.Context, id ContainerID) error {
	m.record("StartContainer", string(id))
	return m.StartErr
}

func (m *MockBackend) StopAndRemoveContainer(_ context.Context, id ContainerID) error {
	m.record("StopAndRemoveContainer", string(id))
	return m.StopRemoveErr
}

func (m *MockBackend) ContainerCopyFile(_ context.Context, path string, from, to ContainerID) error {
	m.record("ContainerCopyFile", path, string(from), string(to))
	return m.CopyErr
}

func (m *MockBackend) CommitContainer(_ context.Context, id ContainerID, repo, tag string) error {
	m.record("CommitContainer", string(id), repo, tag)
	return m.CommitErr
}

func (m *MockBackend) IsRunning(_ context.Context, id ContainerID) (bool, error) {
	m.record("IsRunning", string(id))
	if m.RunningErr != nil {
		return false, m.RunningErr
	}
	if m.runningIdx < len(m.RunningSeq) {
		v := m.RunningSeq[m.runningIdx]
		m.runningIdx++
		return v, nil
	}
	return false, nil
}

func (m *MockBackend) WaitForContainer(_ context.Context, id ContainerID) (int, error) {
	m.record("WaitForContainer", string(id))
	return m.WaitCode, m.WaitErr
}

func (m *MockBackend) GetStdout(_ context.Context, id ContainerID) (string, error) {
	m.record("GetStdout", string(id))
	return m.StdoutResp, m.StdoutErr
}

func (m *MockBackend) GetStderr(_ context.Context, id ContainerID) (string, error) {
	m.record("GetStderr", string(id))
	return m.StderrResp, m.StderrErr
}

func (m *MockBackend) Login(_ context.Context, username, _, host string) (bool, error) {
	m.record("Login", username, host)
	return m.LoginOK, m.LoginErr
}

func (m *MockBackend) Push(_ context.Context, repo, tag, host string) error {
	m.record("Push", repo, tag, host)
	return m.PushErr
}

func (m *MockBackend) Tag(_ context.Context, imageID ImageID, repo, tag, host string) error {
	m.record("Tag", string(imageID), repo, tag, host)
	return m.TagErr
}

func (m *MockBackend) Close() error {
	m.Closed++
	return m.CloseErr
}
