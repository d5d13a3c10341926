package store

const schema = `
CREATE TABLE IF NOT EXISTS installs (
    name TEXT PRIMARY KEY,
    channel TEXT NOT NULL,
    source TEXT,
    install_dir TEXT NOT NULL,
    wrapper_path TEXT NOT NULL,
    installed_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_installs_channel ON installs(channel);
`
