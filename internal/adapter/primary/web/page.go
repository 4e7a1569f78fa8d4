package web

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Mic Check</title>
    <style>
        body { font-family: -apple-system, sans-serif; max-width: 420px; margin: 50px auto; padding: 20px; }
        .row { display: flex; align-items: center; gap: 12px; }
        #icon { font-size: 24px; width: 32px; }
        input[type=range] { flex: 1; }
        input[type=range]:disabled { opacity: 0.4; }
        .info { background: #f0f0f0; padding: 12px; border-radius: 5px; margin: 20px 0; font-size: 13px; }
        button { background: #007bff; color: white; border: none; padding: 8px 16px; border-radius: 5px; cursor: pointer; }
    </style>
</head>
<body>
    <h1>Mic Check</h1>
    <div class="row">
        <span id="icon">🎙</span>
        <input type="range" id="volume" min="0" max="100" step="1" disabled>
        <span id="percent">-</span>
    </div>
    <div class="info" id="lock">Loading...</div>
    <button onclick="refresh()">Refresh</button>
    <script>
        function render(s) {
            const slider = document.getElementById('volume');
            slider.disabled = !s.adjustable;
            if (document.activeElement !== slider) {
                slider.value = Math.round(s.volume * 100);
            }
            document.getElementById('percent').textContent = Math.round(s.volume * 100) + '%';
            document.getElementById('icon').textContent = s.icon === 'mic.fill' ? '🎙' : '🔇';
        }

        async function refresh() {
            const res = await fetch('/api/refresh', {method: 'POST'});
            render(await res.json());
        }

        async function loadLock() {
            const res = await fetch('/api/config');
            const data = await res.json();
            let text = 'Gain lock: ' + (data.config.enabled ? 'on' : 'off') +
                ' (target ' + Math.round(data.config.targetVolume * 100) + '%, last ' + data.config.lastApplyStatus + ')';
            if (data.config.lastError) {
                text += ' - ' + data.config.lastError;
            }
            document.getElementById('lock').textContent = text;
        }

        document.getElementById('volume').addEventListener('input', async (e) => {
            await fetch('/api/state', {
                method: 'PUT',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({volume: e.target.value / 100})
            });
        });

        function connect() {
            const ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onmessage = (ev) => render(JSON.parse(ev.data));
            ws.onclose = () => setTimeout(connect, 2000);
        }

        connect();
        loadLock();
        setInterval(loadLock, 5000);
    </script>
</body>
</html>`
