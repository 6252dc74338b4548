package sqlite

// Prices and sizes are stored as decimal text so a replay reads back exactly what was imported.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS trades (
	exchange   TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	time_stamp INTEGER NOT NULL,
	action     TEXT NOT NULL,
	price      TEXT NOT NULL,
	size       TEXT NOT NULL,
	liquid     BOOLEAN NOT NULL DEFAULT FALSE,
	id         TEXT NOT NULL,
	PRIMARY KEY (exchange, symbol, id)
);

CREATE INDEX IF NOT EXISTS time_index ON trades(exchange, symbol, time_stamp);

CREATE TABLE IF NOT EXISTS order_results (
	run_id          TEXT NOT NULL,
	seq             INTEGER NOT NULL,
	event_time      INTEGER NOT NULL,
	order_id        TEXT NOT NULL,
	sub_id          INTEGER NOT NULL,
	order_type      TEXT NOT NULL,
	post_only       BOOLEAN NOT NULL DEFAULT FALSE,
	create_time     INTEGER NOT NULL,
	status          TEXT NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	open_price      TEXT NOT NULL,
	close_price     TEXT NOT NULL,
	fill_price      TEXT NOT NULL,
	size            TEXT NOT NULL,
	volume          TEXT NOT NULL,
	profit          TEXT NOT NULL,
	fee             TEXT NOT NULL,
	total_profit    TEXT NOT NULL,
	position_change TEXT NOT NULL,
	tag             TEXT NOT NULL DEFAULT '',
	message         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, seq)
);
`
