package sqlstore

// schema creates the three stickfix tables. The DDL sticks to the types
// both drivers accept; `key` is quoted because it is reserved in MySQL.
// Timestamps are written explicitly by the store, so the CURRENT_TIMESTAMP
// default only matters for rows inserted by hand.
const schema = `
CREATE TABLE IF NOT EXISTS meta (
    ` + "`key`" + ` VARCHAR(50) PRIMARY KEY,
    value   VARCHAR(50) NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    chat_id      BIGINT PRIMARY KEY UNIQUE,
    username     VARCHAR(50) NOT NULL,
    state        VARCHAR(50) NOT NULL,
    is_admin     BOOLEAN NOT NULL DEFAULT FALSE,
    private_mode BOOLEAN NOT NULL DEFAULT FALSE,
    shuffle      BOOLEAN NOT NULL DEFAULT FALSE,
    created      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS stickers (
    tag        VARCHAR(50) PRIMARY KEY,
    user_id    BIGINT NOT NULL REFERENCES users(chat_id),
    sticker_id VARCHAR(50) NOT NULL
);
`
