// Package remote lists and fetches recordings from the data server over SFTP.
package remote

import (
  "errors"
  "fmt"
  "io"
  "net"
  "os"
  "path"
  "path/filepath"
  "strings"
  "time"

  "github.com/pkg/sftp"
  "golang.org/x/crypto/ssh"
  "golang.org/x/crypto/ssh/agent"
  "golang.org/x/crypto/ssh/knownhosts"
)

// Config describes how to reach the data server.
type Config struct {
  Host           string        `yaml:"host"`
  Port           int           `yaml:"port"`
  User           string        `yaml:"user"`
  Dir            string        `yaml:"dir"`
  KeyFile        string        `yaml:"key_file"`
  KnownHostsFile string        `yaml:"known_hosts_file"`
  Timeout        time.Duration `yaml:"timeout"`
}

// Fetched is the outcome of a download: either a local path or not found.
type Fetched struct {
  Path  string
  Found bool
}

// Session is one SFTP connection, reused for every file of a run. Close it
// once when done.
type Session struct {
  client *sftp.Client
  conn   io.Closer
  dir    string
}

// Dial connects and authenticates with the ssh agent (SSH_AUTH_SOCK) and,
// if set, a private key file. The host key is checked against known_hosts.
func Dial(cfg Config) (*Session, error) {

  auth, agentConn, err := authMethods(cfg.KeyFile)
  if err != nil {
    return nil, err
  }
  if agentConn != nil {
    defer agentConn.Close()
  }

  hostKeys, err := knownhosts.New(cfg.KnownHostsFile)
  if err != nil {
    return nil, fmt.Errorf("remote: known hosts: %w", err)
  }

  port := cfg.Port
  if port == 0 {
    port = 22
  }
  addr := net.JoinHostPort(cfg.Host, fmt.Sprint(port))

  conn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
    User:            cfg.User,
    Auth:            auth,
    HostKeyCallback: hostKeys,
    Timeout:         cfg.Timeout,
  })
  if err != nil {
    return nil, fmt.Errorf("remote: dial %s: %w", addr, err)
  }

  client, err := sftp.NewClient(conn)
  if err != nil {
    conn.Close()
    return nil, fmt.Errorf("remote: sftp: %w", err)
  }

  return NewSession(client, conn, cfg.Dir), nil
}

func authMethods(
  keyFile string,
) (
  []ssh.AuthMethod, io.Closer, error,
) {

  var methods []ssh.AuthMethod
  var agentConn net.Conn

  if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
    c, err := net.Dial("unix", sock)
    if err == nil {
      agentConn = c
      methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(c).Signers))
    }
  }

  if keyFile != "" {
    signer, err := readKey(keyFile)
    if err != nil {
      if agentConn != nil {
        agentConn.Close()
      }
      return nil, nil, err
    }
    methods = append(methods, ssh.PublicKeys(signer))
  }

  if len(methods) == 0 {
    return nil, nil, errors.New("remote: no ssh agent and no key file")
  }
  if agentConn == nil {
    return methods, nil, nil
  }
  return methods, agentConn, nil
}

func readKey(path string) (ssh.Signer, error) {
  pem, err := os.ReadFile(path)
  if err != nil {
    return nil, fmt.Errorf("remote: key file: %w", err)
  }
  signer, err := ssh.ParsePrivateKey(pem)
  if err != nil {
    return nil, fmt.Errorf("remote: key file: %w", err)
  }
  return signer, nil
}

// NewSession wraps an open SFTP client rooted at dir. conn, if non-nil, is
// closed after the client.
func NewSession(client *sftp.Client, conn io.Closer, dir string) *Session {
  return &Session{client: client, conn: conn, dir: dir}
}

// List returns the file names in the remote data directory.
func (s *Session) List() ([]string, error) {
  entries, err := s.client.ReadDir(s.dir)
  if err != nil {
    return nil, fmt.Errorf("remote: list %s: %w", s.dir, err)
  }
  names := make([]string, 0, len(entries))
  for _, e := range entries {
    if !e.IsDir() {
      names = append(names, e.Name())
    }
  }
  return names, nil
}

// Fetch downloads name into dstDir. A missing remote file is reported as
// Fetched{Found: false} with a nil error and leaves nothing on disk.
func (s *Session) Fetch(
  name, dstDir string,
) (
  Fetched, error,
) {

  src, err := s.client.Open(path.Join(s.dir, name))
  if errors.Is(err, os.ErrNotExist) {
    return Fetched{}, nil
  }
  if err != nil {
    return Fetched{}, fmt.Errorf("remote: open %s: %w", name, err)
  }
  defer src.Close()

  local := filepath.Join(dstDir, name)
  dst, err := os.Create(local)
  if err != nil {
    return Fetched{}, fmt.Errorf("remote: %w", err)
  }

  if _, err := src.WriteTo(dst); err != nil {
    dst.Close()
    os.Remove(local)
    return Fetched{}, fmt.Errorf("remote: download %s: %w", name, err)
  }
  if err := dst.Close(); err != nil {
    os.Remove(local)
    return Fetched{}, fmt.Errorf("remote: %w", err)
  }

  return Fetched{Path: local, Found: true}, nil
}

// Close ends the SFTP session and the underlying connection.
func (s *Session) Close() error {
  err := s.client.Close()
  if s.conn != nil {
    if cerr := s.conn.Close(); err == nil {
      err = cerr
    }
  }
  return err
}

// Filter keeps the names ending in suffix, in order.
func Filter(names []string, suffix string) []string {
  var out []string
  for _, n := range names {
    if strings.HasSuffix(n, suffix) {
      out = append(out, n)
    }
  }
  return out
}
