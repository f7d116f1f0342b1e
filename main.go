package main

import (
	"bufio"
	"crypto/tls"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/deepend-tildeclub/zoitechat-lite/client"
	"github.com/deepend-tildeclub/zoitechat-lite/irc"
	ircf "github.com/deepend-tildeclub/zoitechat-lite/irc/format"
)

func main() {
	config := flag.String("config", "", "Config file to read configuration stuff from")
	debugMode := flag.Bool("debug", false, "Debug mode? (false = use value from settings)")
	notls := flag.Bool("no-tls", false, "Avoids using TLS at all when connecting to the IRC server")
	insecure := flag.Bool("insecure", false, "Skip TLS certificate verification? (INSECURE MODE) (false = use value from settings)")

	flag.Parse()

	if *config == "" {
		log.Fatalln("--config argument is required!")
		return
	}

	viper := viper.New()
	ext := filepath.Ext(*config)
	configName := strings.TrimSuffix(filepath.Base(*config), ext)
	configType := ext[1:]
	configPath := filepath.Dir(*config)
	viper.SetConfigName(configName)
	viper.SetConfigType(configType)
	viper.AddConfigPath(configPath)

	log.WithFields(log.Fields{
		"ConfigName": configName,
		"ConfigType": configType,
		"ConfigPath": configPath,
	}).Infoln("Loading configuration...")

	err := viper.ReadInConfig()
	if err != nil {
		log.Fatalln(errors.Wrap(err, "could not read config"))
	}

	viper.SetDefault("host", "irc.libera.chat")
	viper.SetDefault("port", 6697)
	viper.SetDefault("tls", true)
	viper.SetDefault("nick", "zoiteguest")
	viper.SetDefault("user", "zoite")
	viper.SetDefault("realname", "ZoiteChat Lite")
	viper.SetDefault("auto_join", []string{"#zoite"})

	host := viper.GetString("host")
	port := viper.GetInt("port")
	ignoreMasks := viper.GetStringSlice("ignore_masks")

	if !*debugMode {
		*debugMode = viper.GetBool("debug")
	}
	if !*notls {
		*notls = !viper.GetBool("tls")
	}
	if !*insecure {
		*insecure = viper.GetBool("insecure")
	}

	SetLogDebug(*debugMode)

	if logFile := viper.GetString("log_file"); logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	conn := irc.NewConn()
	conn.SetIdentity(irc.Identity{
		Nick:     viper.GetString("nick"),
		User:     viper.GetString("user"),
		Realname: viper.GetString("realname"),
	})
	if *insecure {
		conn.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	cfg := &client.Config{
		Nick:        viper.GetString("nick"),
		User:        viper.GetString("user"),
		Realname:    viper.GetString("realname"),
		AutoJoin:    viper.GetStringSlice("auto_join"),
		QuitMessage: viper.GetString("quit_message"),
		IgnoreMasks: client.CompileIgnoreMasks(ignoreMasks),
	}

	c := client.New(conn, cfg)

	// The read loop and the stdin loop both drive the dispatcher, which is
	// single-threaded state. One mutex covers both entry points.
	var mu sync.Mutex

	target := client.StatusTarget
	c.OnDisplay = func(to, line string) {
		if line == "" {
			fmt.Printf("(conversation with %s opened)\n", to)
			return
		}
		fmt.Printf("[%s] %s\n", to, renderSpans(ircf.Parse(line)))
	}
	c.OnRosterChanged = func(channel string) {
		members := c.Roster().Members(channel)
		names := make([]string, 0, len(members))
		for _, m := range members {
			names = append(names, m.Rank.Prefix()+m.Nick)
		}
		log.Debugf("names %s: %s", channel, strings.Join(names, " "))
	}

	conn.OnConnected = func() {
		mu.Lock()
		defer mu.Unlock()
		c.HandleConnected()
	}
	conn.OnDisconnected = func(code int, message string) {
		mu.Lock()
		defer mu.Unlock()
		c.HandleDisconnected(code, message)
	}
	conn.OnRawLine = func(line string) {
		log.Debugln("<-", line)
	}
	conn.OnMessage = func(msg *irc.Message) {
		mu.Lock()
		defer mu.Unlock()
		c.HandleMessage(msg)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	if err := conn.Connect(host, uint16(port), !*notls); err != nil {
		log.WithField("error", err).Fatalln("ZoiteChat Lite failed to connect.")
		return
	}

	log.Infoln("ZoiteChat Lite is now running. Press Ctrl-C to exit.")

	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Println("Configuration file has changed!")

		if debug := viper.GetBool("debug"); *debugMode != debug {
			log.Printf("Debug changed from %+v to %+v", *debugMode, debug)
			*debugMode = debug
			SetLogDebug(debug)
		}

		masks := viper.GetStringSlice("ignore_masks")
		if !reflect.DeepEqual(masks, ignoreMasks) {
			log.Println("Ignore masks updated!")
			ignoreMasks = masks
			mu.Lock()
			cfg.IgnoreMasks = client.CompileIgnoreMasks(masks)
			mu.Unlock()
		}
	})

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r\n")
			if line == "" {
				continue
			}
			if to, ok := strings.CutPrefix(line, "/go "); ok {
				mu.Lock()
				target = strings.TrimSpace(to)
				if target == "" {
					target = client.StatusTarget
				}
				fmt.Printf("(talking to %s)\n", target)
				mu.Unlock()
				continue
			}
			mu.Lock()
			c.Run(target, line)
			mu.Unlock()
		}
		sc <- syscall.SIGTERM
	}()

	<-sc

	log.Infoln("Shutting down ZoiteChat Lite...")

	mu.Lock()
	c.Run(client.StatusTarget, "/quit")
	mu.Unlock()
	conn.Disconnect()
}

// renderSpans re-encodes styled spans as ANSI SGR for the terminal.
func renderSpans(spans []ircf.Span) string {
	var b strings.Builder
	styled := false
	for _, span := range spans {
		if span.IsPlain() {
			if styled {
				b.WriteString("\x1b[0m")
				styled = false
			}
			b.WriteString(span.Text)
			continue
		}
		b.WriteString("\x1b[0")
		if span.Bold {
			b.WriteString(";1")
		}
		if span.Underline {
			b.WriteString(";4")
		}
		if fg := span.Foreground; fg != nil {
			fmt.Fprintf(&b, ";38;2;%d;%d;%d", fg.R, fg.G, fg.B)
		}
		if bg := span.Background; bg != nil {
			fmt.Fprintf(&b, ";48;2;%d;%d;%d", bg.R, bg.G, bg.B)
		}
		b.WriteString("m")
		b.WriteString(span.Text)
		styled = true
	}
	if styled {
		b.WriteString("\x1b[0m")
	}
	return b.String()
}

func SetLogDebug(debug bool) {
	logger := log.StandardLogger()
	if debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}
