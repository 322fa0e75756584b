package logging

type mockFile struct {
	Content string
	closed  bool
}

func (fs *mockFile) Append(content []byte) (err error) {
	fs.Content = fs.Content + string(content)
	return nil
}

func (fs *mockFile) Close() error {
	fs.closed = true
	return nil
}

type mockFileSystem struct {
	fmap     map[string]*mockFile
	mkdirErr error
}

func newMockFileSystem() *mockFileSystem {
	return &mockFileSystem{fmap: make(map[string]*mockFile)}
}

func (fs *mockFileSystem) MkDir(name string) error {
	return fs.mkdirErr
}

func (fs *mockFileSystem) Open(name string) (f LogFile, err error) {
	mf := &mockFile{}
	fs.fmap[name] = mf
	return mf, nil
}

func (fs *mockFileSystem) Get(name string) (content string) {
	return fs.fmap[name].Content
}

type mockWafHTTPRequest struct {
	uri        string
	method     string
	remoteAddr string
}

func (r *mockWafHTTPRequest) Method() string        { return r.method }
func (r *mockWafHTTPRequest) URI() string           { return r.uri }
func (r *mockWafHTTPRequest) RemoteAddr() string    { return r.remoteAddr }
func (r *mockWafHTTPRequest) TransactionID() string { return "abc" }
