// Command kvengine-cli is an interactive REPL over a single in-process
// kvengine dataset: a cobra-rooted daemon entrypoint with its server
// loop swapped for a peterh/liner read-loop.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/db"
	"github.com/ledgerwatch/kvengine/internal/log"
)

func rootCommand() *cobra.Command {
	var verbosity string
	cmd := &cobra.Command{
		Use:   "kvengine-cli",
		Short: "Interactive shell over an in-process kvengine dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch verbosity {
			case "debug":
				log.SetLevel(log.LevelDebug)
			case "warn":
				log.SetLevel(log.LevelWarn)
			case "error":
				log.SetLevel(log.LevelError)
			default:
				log.SetLevel(log.LevelInfo)
			}
			return runRepl()
		},
	}
	cmd.Flags().StringVar(&verbosity, "verbosity", "info", "log verbosity: debug|info|warn|error")
	return cmd
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func runRepl() error {
	d := db.New(config.Default())
	d.OnNotify(func(event string, key []byte) {
		log.Debug("keyspace event", "event", event, "key", string(key))
	})

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("kvengine-cli: type HELP for commands, QUIT to exit")
	for {
		input, err := line.Prompt("kv> ")
		if err != nil {
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if strings.EqualFold(input, "quit") || strings.EqualFold(input, "exit") {
			return nil
		}
		dispatch(d, input)
	}
}

func dispatch(d *db.DB, line string) {
	fields := strings.Fields(line)
	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	switch cmd {
	case "HELP":
		fmt.Println("SET key value | GET key | DEL key | EXISTS key | DBSIZE | RANDOMKEY | SCAN cursor | DEBUG OBJECT key")
		fmt.Println("LPUSH/RPUSH key val... | LPOP/RPOP key | LRANGE key start stop | LLEN key")
		fmt.Println("SADD/SREM key member... | SMEMBERS key | SCARD key | SISMEMBER key member")
		fmt.Println("HSET key field value | HGET key field | HDEL key field... | HGETALL key")
		fmt.Println("ZADD key score member | ZSCORE key member | ZRANGE key start stop | ZREM key member...")
	case "SET":
		if len(args) < 2 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		val := d.Pool().MakeString([]byte(strings.Join(args[1:], " ")))
		d.Overwrite([]byte(args[0]), val)
		fmt.Println("OK")
	case "GET":
		if len(args) != 1 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		o, ok := d.LookupRead([]byte(args[0]))
		if !ok {
			fmt.Println("(nil)")
			return
		}
		fmt.Println(string(o.Bytes()))
	case "DEL":
		if len(args) != 1 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		if d.Delete([]byte(args[0])) {
			fmt.Println("(integer) 1")
		} else {
			fmt.Println("(integer) 0")
		}
	case "EXISTS":
		if len(args) != 1 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		if d.Exists([]byte(args[0])) {
			fmt.Println("(integer) 1")
		} else {
			fmt.Println("(integer) 0")
		}
	case "DBSIZE":
		fmt.Println(strconv.Itoa(d.Len()))
	case "RANDOMKEY":
		k, ok := d.RandomKey()
		if !ok {
			fmt.Println("(nil)")
			return
		}
		fmt.Println(string(k))
	case "SCAN":
		cursor := uint64(0)
		if len(args) == 1 {
			c, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				fmt.Println("ERR invalid cursor")
				return
			}
			cursor = c
		}
		next := d.Scan(cursor, func(key []byte) {
			fmt.Println(string(key))
		})
		fmt.Printf("cursor %d\n", next)
	case "DEBUG":
		if len(args) != 2 || strings.ToUpper(args[0]) != "OBJECT" {
			fmt.Println("ERR usage: DEBUG OBJECT key")
			return
		}
		o, ok := d.LookupRead([]byte(args[1]))
		if !ok {
			fmt.Println("(nil)")
			return
		}
		fmt.Println(o.Dump())
	case "LPUSH", "RPUSH":
		if len(args) < 2 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		values := byteSlices(args[1:])
		var n int
		var err error
		if cmd == "LPUSH" {
			n, err = d.LPush([]byte(args[0]), values...)
		} else {
			n, err = d.RPush([]byte(args[0]), values...)
		}
		if printErr(err) {
			return
		}
		fmt.Printf("(integer) %d\n", n)
	case "LPOP", "RPOP":
		if len(args) != 1 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		var v []byte
		var ok bool
		var err error
		if cmd == "LPOP" {
			v, ok, err = d.LPop([]byte(args[0]))
		} else {
			v, ok, err = d.RPop([]byte(args[0]))
		}
		if printErr(err) {
			return
		}
		if !ok {
			fmt.Println("(nil)")
			return
		}
		fmt.Println(string(v))
	case "LRANGE":
		if len(args) != 3 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		start, err1 := strconv.Atoi(args[1])
		stop, err2 := strconv.Atoi(args[2])
		if err1 != nil || err2 != nil {
			fmt.Println("ERR invalid index")
			return
		}
		vals, err := d.LRange([]byte(args[0]), start, stop)
		if printErr(err) {
			return
		}
		for _, v := range vals {
			fmt.Println(string(v))
		}
	case "LLEN":
		if len(args) != 1 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		n, err := d.LLen([]byte(args[0]))
		if printErr(err) {
			return
		}
		fmt.Printf("(integer) %d\n", n)
	case "SADD", "SREM":
		if len(args) < 2 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		members := byteSlices(args[1:])
		var n int
		var err error
		if cmd == "SADD" {
			n, err = d.SAdd([]byte(args[0]), members...)
		} else {
			n, err = d.SRem([]byte(args[0]), members...)
		}
		if printErr(err) {
			return
		}
		fmt.Printf("(integer) %d\n", n)
	case "SMEMBERS":
		if len(args) != 1 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		members, err := d.SMembers([]byte(args[0]))
		if printErr(err) {
			return
		}
		for _, m := range members {
			fmt.Println(string(m))
		}
	case "SCARD":
		if len(args) != 1 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		n, err := d.SCard([]byte(args[0]))
		if printErr(err) {
			return
		}
		fmt.Printf("(integer) %d\n", n)
	case "SISMEMBER":
		if len(args) != 2 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		ok, err := d.SIsMember([]byte(args[0]), []byte(args[1]))
		if printErr(err) {
			return
		}
		if ok {
			fmt.Println("(integer) 1")
		} else {
			fmt.Println("(integer) 0")
		}
	case "HSET":
		if len(args) != 3 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		created, err := d.HSet([]byte(args[0]), []byte(args[1]), []byte(args[2]))
		if printErr(err) {
			return
		}
		if created {
			fmt.Println("(integer) 1")
		} else {
			fmt.Println("(integer) 0")
		}
	case "HGET":
		if len(args) != 2 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		v, ok, err := d.HGet([]byte(args[0]), []byte(args[1]))
		if printErr(err) {
			return
		}
		if !ok {
			fmt.Println("(nil)")
			return
		}
		fmt.Println(string(v))
	case "HDEL":
		if len(args) < 2 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		n, err := d.HDel([]byte(args[0]), byteSlices(args[1:])...)
		if printErr(err) {
			return
		}
		fmt.Printf("(integer) %d\n", n)
	case "HGETALL":
		if len(args) != 1 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		all, err := d.HGetAll([]byte(args[0]))
		if printErr(err) {
			return
		}
		for f, v := range all {
			fmt.Printf("%s -> %s\n", f, string(v))
		}
	case "ZADD":
		if len(args) != 3 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		score, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			fmt.Println("ERR invalid score")
			return
		}
		created, err := d.ZAdd([]byte(args[0]), []byte(args[2]), score)
		if printErr(err) {
			return
		}
		if created {
			fmt.Println("(integer) 1")
		} else {
			fmt.Println("(integer) 0")
		}
	case "ZSCORE":
		if len(args) != 2 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		score, ok, err := d.ZScore([]byte(args[0]), []byte(args[1]))
		if printErr(err) {
			return
		}
		if !ok {
			fmt.Println("(nil)")
			return
		}
		fmt.Println(strconv.FormatFloat(score, 'g', -1, 64))
	case "ZRANGE":
		if len(args) != 3 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		start, err1 := strconv.Atoi(args[1])
		stop, err2 := strconv.Atoi(args[2])
		if err1 != nil || err2 != nil {
			fmt.Println("ERR invalid index")
			return
		}
		members, scores, err := d.ZRange([]byte(args[0]), start, stop)
		if printErr(err) {
			return
		}
		for i, m := range members {
			fmt.Printf("%s %s\n", string(m), strconv.FormatFloat(scores[i], 'g', -1, 64))
		}
	case "ZREM":
		if len(args) < 2 {
			fmt.Println("ERR wrong number of arguments")
			return
		}
		n, err := d.ZRem([]byte(args[0]), byteSlices(args[1:])...)
		if printErr(err) {
			return
		}
		fmt.Printf("(integer) %d\n", n)
	default:
		fmt.Printf("ERR unknown command %q\n", fields[0])
	}
}

func byteSlices(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

// printErr prints err in redis-style ERR form and reports whether
// there was one, so callers can bail out in one line.
func printErr(err error) bool {
	if err == nil {
		return false
	}
	fmt.Printf("ERR %s\n", err.Error())
	return true
}
