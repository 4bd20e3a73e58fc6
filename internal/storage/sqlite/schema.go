package sqlite

const schema = `
-- Issues table
CREATE TABLE IF NOT EXISTS issues (
    issue_id TEXT PRIMARY KEY,
    title TEXT NOT NULL CHECK(length(title) > 0),
    description TEXT NOT NULL CHECK(length(description) > 0),
    priority TEXT NOT NULL CHECK(priority IN ('critical', 'high', 'medium')),
    status TEXT NOT NULL DEFAULT 'outstanding'
        CHECK(status IN ('outstanding', 'in_progress', 'resolved', 'failed')),
    work_status TEXT NOT NULL DEFAULT 'available'
        CHECK(work_status IN ('available', 'locked')),
    locked_by TEXT NOT NULL DEFAULT ''
        CHECK((work_status = 'locked') = (locked_by <> '')),
    project TEXT NOT NULL DEFAULT '',
    issue_type TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    root_cause TEXT NOT NULL DEFAULT '',
    required_fix TEXT NOT NULL DEFAULT '',
    attempt_count INTEGER NOT NULL DEFAULT 0 CHECK(attempt_count >= 0),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK(created_at <= updated_at)
);

CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);
CREATE INDEX IF NOT EXISTS idx_issues_priority ON issues(priority);
CREATE INDEX IF NOT EXISTS idx_issues_work_status ON issues(work_status);
CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project);
CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);

-- Issue thread table (append-only audit trail)
CREATE TABLE IF NOT EXISTS issue_thread (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    issue_id TEXT NOT NULL,
    entry_type TEXT NOT NULL
        CHECK(entry_type IN ('created', 'comment', 'status_change', 'checkout', 'release', 'report')),
    author TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    payload TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (issue_id) REFERENCES issues(issue_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_issue_thread_issue ON issue_thread(issue_id, created_at);

-- Config table (for storing settings like issue prefix and attempt policy)
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
