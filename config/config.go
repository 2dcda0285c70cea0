package config

import (
	"net"
	"os"
	"regexp"
	"strconv"

	"github.com/spf13/pflag"
)

type Config struct {
	Addr        string
	DBUrl       string
	GeminiKey   string
	GeminiModel string
	Debug       bool
}

func ParseFlags() (cfg Config, err error) {
	var host string
	pflag.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	pflag.UintVar(&port, "port", 8080, "listen port number")
	pflag.StringVar(&cfg.DBUrl, "db-url", "formwise.sqlite", "path to SQLite3 DB file")
	pflag.StringVar(&cfg.GeminiKey, "gemini-api-key", "", "Gemini API key (falls back to GEMINI_API_KEY)")
	pflag.StringVar(&cfg.GeminiModel, "gemini-model", "", "Gemini model name override")
	pflag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	pflag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))

	if cfg.GeminiKey == "" {
		cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
